package middleware

import (
	"github.com/gin-gonic/gin"

	"desklock/internal/idgen"
)

const RequestIDKey = "X-Request-ID"

const maxRequestIDLength = 64

// RequestID tags each control request with an ID that the access log and the
// response carry. A caller-supplied ID is kept only if it is a short token;
// anything else is replaced with a generated req_ ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDKey)
		if !validRequestID(requestID) {
			requestID = idgen.NewRequest()
		}
		c.Header(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
