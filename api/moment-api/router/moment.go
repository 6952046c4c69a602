package moment_routers

import (
	"github.com/gin-gonic/gin"

	audioApi "github.com/teachermoments/moments/api/moment-api/api/audio"
	evidenceApi "github.com/teachermoments/moments/api/moment-api/api/evidence"
	questionApi "github.com/teachermoments/moments/api/moment-api/api/question"
	reviewApi "github.com/teachermoments/moments/api/moment-api/api/review"
	sessionApi "github.com/teachermoments/moments/api/moment-api/api/session"
	internal_notify "github.com/teachermoments/moments/api/moment-api/internal/notify"
	internal_review "github.com/teachermoments/moments/api/moment-api/internal/review"
	internal_storage "github.com/teachermoments/moments/api/moment-api/internal/storage"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/middlewares"
)

// EvidenceRoutes wires the endpoint that receives all evidence.
func EvidenceRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector, notifier internal_notify.Notifier) {
	logger.Info("EvidenceRoutes added to engine.")
	api := evidenceApi.New(cfg, logger, postgres, notifier)
	{
		engine.POST("/server/evidence/:app/:type/:version", api.Post)
	}
}

// QuestionRoutes wires the question authoring endpoints behind basic auth.
func QuestionRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector) {
	logger.Info("QuestionRoutes added to engine.")
	api := questionApi.New(cfg, logger, postgres)
	authoring := engine.Group("/server/questions", middlewares.AuthoringAuth(cfg))
	{
		authoring.GET("", api.Get)
		authoring.POST("", api.Post)
	}
}

// AudioRoutes wires WAV write, reviewer read, and websocket capture ingest.
func AudioRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector, blobs internal_storage.BlobStore) {
	logger.Info("AudioRoutes added to engine.")
	api := audioApi.New(cfg, logger, postgres, blobs)
	{
		engine.POST("/teachermoments/wav", api.PostWav)
		engine.GET("/teachermoments/wav/:id", api.GetWav)
		engine.GET("/teachermoments/capture", api.CaptureWav)
	}
}

// SessionRoutes wires the websocket endpoint that runs a scenario session
// server-side.
func SessionRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector, blobs internal_storage.BlobStore) {
	logger.Info("SessionRoutes added to engine.")
	api := sessionApi.New(cfg, logger, postgres, blobs)
	{
		engine.GET("/teachermoments/session", api.Run)
	}
}

// ReviewRoutes wires the read path for reviewing responses.
func ReviewRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	postgres connectors.PostgresConnector, redis connectors.RedisConnector,
	email internal_notify.EmailSender) {
	logger.Info("ReviewRoutes added to engine.")
	api := reviewApi.New(cfg, logger, postgres, email)
	limiter := middlewares.RateLimit(redis, logger, cfg.RateLimitPerHour)
	store := internal_review.NewStore(postgres, logger)
	{
		engine.POST("/server/reviews/create", limiter, api.CreateReview)
		engine.GET("/server/reviews", middlewares.OnlyAllowResearchers(store, logger), api.GetReviews)
		engine.GET("/server/apples/:key", api.GetApples)
	}
}
