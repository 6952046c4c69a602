package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teachermoments/moments/config"
)

// EnforceHTTPS redirects plain-http traffic behind the load balancer,
// keyed off x-forwarded-proto. Disabled in development.
func EnforceHTTPS(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}
		if c.GetHeader("x-forwarded-proto") != "https" {
			httpsURL := "https://" + c.Request.Host + c.Request.URL.RequestURI()
			c.Redirect(http.StatusMovedPermanently, httpsURL)
			c.Abort()
			return
		}
		c.Next()
	}
}
