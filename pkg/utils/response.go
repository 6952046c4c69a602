package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes a JSON success envelope.
func Success(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// Error writes a JSON error envelope with a user-safe message. The
// underlying error is for the caller to log, never for the response body.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// Unauthorized writes a 401 with a WWW-Authenticate challenge, matching the
// behavior browsers expect for basic auth protected endpoints.
func Unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="Authorization Required"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
}
