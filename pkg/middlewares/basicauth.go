package middlewares

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/utils"
)

// AuthoringAuth protects the question authoring endpoints with basic auth.
// Development skips the check; missing credentials in any other environment
// lock the endpoints entirely.
func AuthoringAuth(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}
		if cfg.AuthoringUsername == "" || cfg.AuthoringPassword == "" {
			utils.Unauthorized(c)
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(cfg.AuthoringUsername)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.AuthoringPassword)) != 1 {
			utils.Unauthorized(c)
			return
		}
		c.Next()
	}
}
