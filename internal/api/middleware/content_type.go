package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ContentType rejects lock requests whose body is not JSON. Bodyless
// requests pass, so `curl -X POST /v1/lock` works without a header.
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength != 0 && c.Request.Method != http.MethodGet &&
			c.ContentType() != binding.MIMEJSON {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": "Content-Type must be application/json",
				"code":  "INVALID_CONTENT_TYPE",
			})
			return
		}
		c.Next()
	}
}
