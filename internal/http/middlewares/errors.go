package middlewares

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every failed response. Clients read
// the error field as a plain message string.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	// fallback header
	return c.GetHeader(requestIDHeader)
}

func AbortWithError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Error:     message,
		Code:      code,
		RequestID: RequestIDFrom(c),
		Details:   details,
	})
}
