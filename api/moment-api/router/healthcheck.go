package moment_routers

import (
	"github.com/gin-gonic/gin"

	healthCheckApi "github.com/teachermoments/moments/api/health-check-api"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, postgres connectors.PostgresConnector) {
	logger.Info("HealthCheckRoutes added to engine.")
	hcApi := healthCheckApi.New(cfg, logger, postgres)
	{
		engine.GET("/readiness/", hcApi.Readiness)
		engine.GET("/healthz/", hcApi.Healthz)
	}
}
