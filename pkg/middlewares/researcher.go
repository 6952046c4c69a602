package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	internal_review "github.com/teachermoments/moments/api/moment-api/internal/review"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/utils"
)

// TokenHeader carries the researcher session token on every research request.
const TokenHeader = "x-teachermoments-token"

// ResearcherEmailKey is where the middleware stores the authenticated email.
const ResearcherEmailKey = "researcherEmail"

// OnlyAllowResearchers rejects requests whose token header does not resolve
// to an unexpired researcher token.
func OnlyAllowResearchers(store internal_review.Store, logger commons.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(TokenHeader)
		if token == "" {
			utils.Error(c, http.StatusUnauthorized, "missing researcher token")
			c.Abort()
			return
		}

		row, err := store.ResolveToken(c.Request.Context(), token)
		if err != nil {
			logger.Warnf("rejected researcher token: %v", err)
			utils.Error(c, http.StatusUnauthorized, "invalid researcher token")
			c.Abort()
			return
		}

		c.Set(ResearcherEmailKey, row.Email)
		c.Next()
	}
}
