package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON gates the JSON route groups: any body-carrying method must
// declare application/json. Multipart routes (avatar upload, document
// upload) are registered outside these groups and never pass through here.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			// ContentType() strips parameters like "; charset=utf-8"
			if c.ContentType() != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": gin.H{
						"code":    "unsupported_media_type",
						"message": "Content-Type must be application/json",
					},
				})
				return
			}
		}
		c.Next()
	}
}
