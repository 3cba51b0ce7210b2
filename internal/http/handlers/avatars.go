package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/images"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/repo/mongodb"
)

// maxAvatarBytes caps the accepted upload before the image pipeline runs.
const maxAvatarBytes = 1_000_000

// AvatarStore is the slice of the users repository the avatar handlers need.
type AvatarStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	SetAvatar(ctx context.Context, id string, png []byte) error
	UnsetAvatar(ctx context.Context, id string) error
}

type Avatars struct {
	store AvatarStore
	cache *cache.Cache
	prom  *observability.Prom
}

func NewAvatars(store AvatarStore, avatarCache *cache.Cache, prom *observability.Prom) *Avatars {
	return &Avatars{
		store: store,
		cache: avatarCache,
		prom:  prom,
	}
}

func (h *Avatars) rejected(reason string) {
	if h.prom != nil {
		h.prom.UploadsRejected.WithLabelValues("avatar", reason).Inc()
	}
}

// Upload accepts a jpg/jpeg/png file in the "avatar" form field,
// normalises it to a square PNG and stores it on the user document.
func (h *Avatars) Upload(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	header, err := ctx.FormFile("avatar")

	if err != nil {
		h.rejected("missing_file")
		RespondBadRequest(ctx, "invalid_upload", "avatar file is required", nil)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))

	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		h.rejected("bad_extension")
		RespondBadRequest(ctx, "invalid_upload", "Please upload an image", nil)
		return
	}

	if header.Size > maxAvatarBytes {
		h.rejected("too_large")
		RespondBadRequest(ctx, "invalid_upload", "Image must be smaller than 1MB", nil)
		return
	}

	file, err := header.Open()

	if err != nil {
		RespondInternal(ctx, "failed to read upload")
		return
	}
	defer file.Close()

	// header.Size is client supplied, re-check while reading
	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))

	if err != nil {
		RespondInternal(ctx, "failed to read upload")
		return
	}

	if len(data) > maxAvatarBytes {
		h.rejected("too_large")
		RespondBadRequest(ctx, "invalid_upload", "Image must be smaller than 1MB", nil)
		return
	}

	png, err := images.NormalizeAvatar(data)

	if err != nil {
		h.rejected("not_an_image")
		RespondBadRequest(ctx, "invalid_upload", "Please upload an image", nil)
		return
	}

	if err := h.store.SetAvatar(ctx.Request.Context(), current.ID, png); err != nil {
		RespondInternal(ctx, "failed to store avatar")
		return
	}

	h.cache.Delete(current.ID)

	ctx.Status(http.StatusOK)
}

// Delete removes the authenticated user's avatar.
func (h *Avatars) Delete(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	if err := h.store.UnsetAvatar(ctx.Request.Context(), current.ID); err != nil {
		RespondInternal(ctx, "failed to delete avatar")
		return
	}

	h.cache.Delete(current.ID)

	ctx.Status(http.StatusOK)
}

// Get serves any user's avatar by id. The route is public: avatars are
// displayable profile images, not private data.
func (h *Avatars) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	if png, hit := h.cache.Get(id); hit {
		ctx.Data(http.StatusOK, "image/png", png)
		return
	}

	found, err := h.store.GetByID(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			RespondNotFound(ctx, "avatar not found")
			return
		}
		RespondInternal(ctx, "failed to load avatar")
		return
	}

	if len(found.Avatar) == 0 {
		RespondNotFound(ctx, "avatar not found")
		return
	}

	h.cache.Set(id, found.Avatar)

	ctx.Data(http.StatusOK, "image/png", found.Avatar)
}
