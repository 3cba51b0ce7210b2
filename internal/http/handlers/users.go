package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/notifications"
	"github.com/geocoder89/taskhub/internal/repo/mongodb"
	"github.com/geocoder89/taskhub/internal/security"
)

// UsersStore is the slice of the users repository the account handlers need.
type UsersStore interface {
	Create(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Save(ctx context.Context, u user.User) error
	PushToken(ctx context.Context, id, token string) error
	PullToken(ctx context.Context, id, token string) error
	ClearTokens(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// OwnedTasksDeleter cascades task removal when an account is closed.
type OwnedTasksDeleter interface {
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// TokenIssuer mints a signed session token for a user id.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

type Users struct {
	store    UsersStore
	tasks    OwnedTasksDeleter
	tokens   TokenIssuer
	notifier notifications.Notifier
	logger   *slog.Logger
}

func NewUsers(store UsersStore, tasks OwnedTasksDeleter, tokens TokenIssuer, notifier notifications.Notifier, logger *slog.Logger) *Users {
	return &Users{
		store:    store,
		tasks:    tasks,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Age      int    `json:"age" binding:"omitempty,gte=0"`
}

// Register creates an account, starts its first session and sends a
// welcome email in the background.
func (h *Users) Register(ctx *gin.Context) {
	var req registerRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.ValidatePassword(req.Password); err != nil {
		RespondBadRequest(ctx, "weak_password", err.Error(), nil)
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "failed to create account")
		return
	}

	now := time.Now().UTC()

	newUser := user.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Age:          req.Age,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	token, err := h.tokens.GenerateToken(newUser.ID)

	if err != nil {
		RespondInternal(ctx, "failed to create session")
		return
	}

	newUser.Tokens = []user.AuthToken{{Token: token}}

	if err := h.store.Create(ctx.Request.Context(), newUser); err != nil {
		if errors.Is(err, mongodb.ErrEmailTaken) {
			RespondBadRequest(ctx, "email_taken", "Email is already registered", nil)
			return
		}
		RespondInternal(ctx, "failed to create account")
		return
	}

	h.notifyAsync("welcome", newUser, h.notifier.SendWelcome)

	ctx.JSON(http.StatusCreated, gin.H{"user": newUser, "token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and appends a fresh token to the session
// list. Unknown email and wrong password produce the same response so
// the endpoint does not leak which accounts exist.
func (h *Users) Login(ctx *gin.Context) {
	var req loginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	found, err := h.store.GetByEmail(ctx.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))

	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			respondLoginFailed(ctx)
			return
		}
		RespondInternal(ctx, "failed to log in")
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		respondLoginFailed(ctx)
		return
	}

	token, err := h.tokens.GenerateToken(found.ID)

	if err != nil {
		RespondInternal(ctx, "failed to create session")
		return
	}

	if err := h.store.PushToken(ctx.Request.Context(), found.ID, token); err != nil {
		RespondInternal(ctx, "failed to create session")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": found, "token": token})
}

func respondLoginFailed(ctx *gin.Context) {
	RespondBadRequest(ctx, "login_failed", "Unable to login", nil)
}

// Logout revokes only the session token the request authenticated with.
func (h *Users) Logout(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)
	token, tokenOK := middlewares.TokenFromContext(ctx)

	if !ok || !tokenOK {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	if err := h.store.PullToken(ctx.Request.Context(), current.ID, token); err != nil {
		RespondInternal(ctx, "failed to log out")
		return
	}

	ctx.Status(http.StatusOK)
}

// LogoutAll revokes every active session of the authenticated user.
func (h *Users) LogoutAll(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	if err := h.store.ClearTokens(ctx.Request.Context(), current.ID); err != nil {
		RespondInternal(ctx, "failed to log out")
		return
	}

	ctx.Status(http.StatusOK)
}

// Me returns the authenticated user's own profile.
func (h *Users) Me(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, current)
}

var updatableUserFields = map[string]struct{}{
	"name":     {},
	"email":    {},
	"password": {},
	"age":      {},
}

var fieldValidate = validator.New()

// Update applies a partial profile update. The request is rejected as a
// whole when it names any field outside the allowed set, before any of
// it is applied.
func (h *Users) Update(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	var patch map[string]json.RawMessage

	if err := ctx.ShouldBindJSON(&patch); err != nil {
		RespondBadRequest(ctx, "invalid_request", "Invalid request body", parseBindError(err))
		return
	}

	if len(patch) == 0 {
		RespondBadRequest(ctx, "invalid_updates", "No updates provided", nil)
		return
	}

	var unknown []string

	for key := range patch {
		if _, allowed := updatableUserFields[key]; !allowed {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		RespondBadRequest(ctx, "invalid_updates", "Invalid updates!", gin.H{"fields": unknown})
		return
	}

	updated := current

	if raw, set := patch["name"]; set {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || strings.TrimSpace(name) == "" {
			RespondBadRequest(ctx, "invalid_updates", "name must be a non-empty string", nil)
			return
		}
		updated.Name = strings.TrimSpace(name)
	}

	if raw, set := patch["email"]; set {
		var email string
		if err := json.Unmarshal(raw, &email); err != nil {
			RespondBadRequest(ctx, "invalid_updates", "email must be a string", nil)
			return
		}
		email = strings.ToLower(strings.TrimSpace(email))
		if err := fieldValidate.Var(email, "required,email"); err != nil {
			RespondBadRequest(ctx, "invalid_updates", "email must be a valid email address", nil)
			return
		}
		updated.Email = email
	}

	if raw, set := patch["age"]; set {
		var age int
		if err := json.Unmarshal(raw, &age); err != nil || age < 0 {
			RespondBadRequest(ctx, "invalid_updates", "age must be a non-negative integer", nil)
			return
		}
		updated.Age = age
	}

	if raw, set := patch["password"]; set {
		var plain string
		if err := json.Unmarshal(raw, &plain); err != nil {
			RespondBadRequest(ctx, "invalid_updates", "password must be a string", nil)
			return
		}
		if err := security.ValidatePassword(plain); err != nil {
			RespondBadRequest(ctx, "weak_password", err.Error(), nil)
			return
		}
		hash, err := security.HashPassword(plain)
		if err != nil {
			RespondInternal(ctx, "failed to update account")
			return
		}
		updated.PasswordHash = hash
	}

	updated.UpdatedAt = time.Now().UTC()

	if err := h.store.Save(ctx.Request.Context(), updated); err != nil {
		switch {
		case errors.Is(err, mongodb.ErrEmailTaken):
			RespondBadRequest(ctx, "email_taken", "Email is already registered", nil)
		case errors.Is(err, mongodb.ErrUserNotFound):
			RespondNotFound(ctx, "user not found")
		default:
			RespondInternal(ctx, "failed to update account")
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// Delete closes the account, removes every task it owns and sends a
// cancellation email in the background.
func (h *Users) Delete(ctx *gin.Context) {
	current, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Please authenticate")
		return
	}

	if err := h.store.Delete(ctx.Request.Context(), current.ID); err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			RespondNotFound(ctx, "user not found")
			return
		}
		RespondInternal(ctx, "failed to delete account")
		return
	}

	if err := h.tasks.DeleteByOwner(ctx.Request.Context(), current.ID); err != nil {
		// the account itself is gone, report success but keep a trace
		h.logger.ErrorContext(ctx.Request.Context(), "cascade task delete failed",
			slog.String("user_id", current.ID),
			slog.Any("error", err),
		)
	}

	h.notifyAsync("cancellation", current, h.notifier.SendCancellation)

	ctx.JSON(http.StatusOK, current)
}

// notifyAsync sends an account email without blocking the response.
// Delivery failures are logged and otherwise ignored.
func (h *Users) notifyAsync(kind string, u user.User, send func(context.Context, notifications.AccountEmailInput) error) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := send(sendCtx, notifications.AccountEmailInput{Email: u.Email, Name: u.Name}); err != nil {
			h.logger.Warn("account email not delivered",
				slog.String("kind", kind),
				slog.String("user_id", u.ID),
				slog.Any("error", err),
			)
		}
	}()
}
