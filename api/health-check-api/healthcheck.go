package health_check_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

type HealthCheckApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector) *HealthCheckApi {
	return &HealthCheckApi{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
	}
}

// Healthz reports process liveness.
func (api *HealthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": api.cfg.Version})
}

// Readiness reports whether the database is reachable.
func (api *HealthCheckApi) Readiness(c *gin.Context) {
	sqlDB, err := api.postgres.DB(c.Request.Context()).DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		api.logger.Errorf("readiness failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
