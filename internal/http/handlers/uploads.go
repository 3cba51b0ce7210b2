package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/taskhub/internal/observability"
)

const maxDocumentBytes = 1_000_000

// Uploads handles the generic document upload endpoint. The file is
// validated and discarded: the endpoint exists for its acceptance rules.
type Uploads struct {
	prom *observability.Prom
}

func NewUploads(prom *observability.Prom) *Uploads {
	return &Uploads{prom: prom}
}

func (h *Uploads) rejected(reason string) {
	if h.prom != nil {
		h.prom.UploadsRejected.WithLabelValues("upload", reason).Inc()
	}
}

// Document accepts a Word document (.doc or .docx) up to 1MB in the
// "upload" form field. Anything else is rejected with a 400.
func (h *Uploads) Document(ctx *gin.Context) {
	header, err := ctx.FormFile("upload")

	if err != nil {
		h.rejected("missing_file")
		RespondBadRequest(ctx, "invalid_upload", "upload file is required", nil)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))

	if ext != ".doc" && ext != ".docx" {
		h.rejected("bad_extension")
		RespondBadRequest(ctx, "invalid_upload", "Please upload a Word document", nil)
		return
	}

	if header.Size > maxDocumentBytes {
		h.rejected("too_large")
		RespondBadRequest(ctx, "invalid_upload", "Document must be smaller than 1MB", nil)
		return
	}

	ctx.Status(http.StatusOK)
}
