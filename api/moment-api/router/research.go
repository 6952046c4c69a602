package moment_routers

import (
	"github.com/gin-gonic/gin"

	researchApi "github.com/teachermoments/moments/api/moment-api/api/research"
	internal_notify "github.com/teachermoments/moments/api/moment-api/internal/notify"
	internal_review "github.com/teachermoments/moments/api/moment-api/internal/review"
	internal_storage "github.com/teachermoments/moments/api/moment-api/internal/storage"
	internal_transcribe "github.com/teachermoments/moments/api/moment-api/internal/transcribe"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/middlewares"
)

// ResearchRoutes wires the authenticated researcher surface. The whole
// group sits behind the global researcher-access kill switch; login and
// email exchange are rate limited.
func ResearchRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector, redis connectors.RedisConnector,
	blobs internal_storage.BlobStore, transcriber internal_transcribe.Transcriber,
	email internal_notify.EmailSender) {
	if !cfg.EnableResearcherAccess {
		logger.Info("Researcher access disabled, skipping ResearchRoutes.")
		return
	}
	logger.Info("ResearchRoutes added to engine.")

	api := researchApi.New(cfg, logger, postgres, blobs, transcriber, email)
	limiter := middlewares.RateLimit(redis, logger, cfg.RateLimitPerHour)
	onlyResearchers := middlewares.OnlyAllowResearchers(internal_review.NewStore(postgres, logger), logger)

	research := engine.Group("/server/research")
	{
		research.POST("/login", limiter, api.Login)
		research.POST("/email", limiter, api.Email)

		research.GET("/data", limiter, onlyResearchers, api.Data)
		research.GET("/wav/:id", limiter, onlyResearchers, api.Wav)
		research.POST("/transcribe/:id", limiter, onlyResearchers, api.Transcribe)
	}
}
