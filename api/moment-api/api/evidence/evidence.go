package evidence_api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	internal_evidence "github.com/teachermoments/moments/api/moment-api/internal/evidence"
	internal_notify "github.com/teachermoments/moments/api/moment-api/internal/notify"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/utils"
)

// EvidenceApi receives all evidence. The payload shape is determined by the
// type; everything lands in the same table with a jsonb column.
type EvidenceApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	store    internal_evidence.Store
	notifier internal_notify.Notifier
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector, notifier internal_notify.Notifier) *EvidenceApi {
	return &EvidenceApi{
		cfg:      cfg,
		logger:   logger,
		store:    internal_evidence.NewStore(postgres, logger),
		notifier: notifier,
	}
}

// Post handles POST /server/evidence/:app/:type/:version.
func (api *EvidenceApi) Post(c *gin.Context) {
	app := c.Param("app")
	eventType := c.Param("type")
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "version must be an integer")
		return
	}

	var payload interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.Error(c, http.StatusBadRequest, "body must be JSON")
		return
	}

	api.notifier.Notify(c.Request.Context(), "Got evidence.")

	if _, err := api.store.Save(c.Request.Context(), app, eventType, version, payload); err != nil {
		api.logger.Errorf("evidence save failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to save evidence")
		return
	}

	c.JSON(http.StatusCreated, gin.H{})
}
