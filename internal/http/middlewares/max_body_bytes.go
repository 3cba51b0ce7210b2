package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps the request body before any handler reads it. The JSON
// groups get a 1MB cap; the upload groups a larger one, since the per-file
// 1,000,000-byte limit is enforced separately after multipart parsing.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
