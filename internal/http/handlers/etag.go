package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes the payload with a strong ETag derived from
// its canonical JSON encoding, honouring If-None-Match with a 304.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	body, err := json.Marshal(payload)

	if err != nil {
		RespondInternal(ctx, "failed to encode response")
		return
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	ctx.Header("ETag", etag)

	if match := ctx.GetHeader("If-None-Match"); match != "" && match == etag {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}
