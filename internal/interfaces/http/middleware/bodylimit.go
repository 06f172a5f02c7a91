package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skubridge/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that caps request body size. It is the
// outer guard; the webhook and upload handlers apply their own tighter
// per-endpoint limits before reading.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"))
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
