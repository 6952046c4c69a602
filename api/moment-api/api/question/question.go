package question_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	internal_question "github.com/teachermoments/moments/api/moment-api/internal/question"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/utils"
)

// QuestionApi serves the authored question bank. Both endpoints sit behind
// the authoring basic auth middleware.
type QuestionApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
	store  internal_question.Store
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector) *QuestionApi {
	return &QuestionApi{
		cfg:    cfg,
		logger: logger,
		store:  internal_question.NewStore(postgres, logger),
	}
}

// Get handles GET /server/questions, returning the newest question document
// or the empty document when nothing has been authored.
func (api *QuestionApi) Get(c *gin.Context) {
	document, err := api.store.Latest(c.Request.Context())
	if err != nil {
		api.logger.Errorf("question load failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to load questions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": document})
}

// Post handles POST /server/questions, appending a new snapshot of the
// whole question document.
func (api *QuestionApi) Post(c *gin.Context) {
	var document interface{}
	if err := c.ShouldBindJSON(&document); err != nil {
		utils.Error(c, http.StatusBadRequest, "body must be JSON")
		return
	}

	if err := api.store.Save(c.Request.Context(), document); err != nil {
		api.logger.Errorf("question save failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to save questions")
		return
	}
	c.JSON(http.StatusCreated, gin.H{})
}
