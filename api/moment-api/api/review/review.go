package review_api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	internal_evidence "github.com/teachermoments/moments/api/moment-api/internal/evidence"
	internal_notify "github.com/teachermoments/moments/api/moment-api/internal/notify"
	internal_review "github.com/teachermoments/moments/api/moment-api/internal/review"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/middlewares"
	"github.com/teachermoments/moments/pkg/utils"
)

// applesLimit bounds how many responses a group review pulls.
const applesLimit = 200

// ReviewApi is the read path for reviewing responses: shareable review
// links, researcher review urls, and anonymized group review data.
type ReviewApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	reviews  internal_review.Store
	evidence internal_evidence.Store
	email    internal_notify.EmailSender
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector, email internal_notify.EmailSender) *ReviewApi {
	return &ReviewApi{
		cfg:      cfg,
		logger:   logger,
		reviews:  internal_review.NewStore(postgres, logger),
		evidence: internal_evidence.NewStore(postgres, logger),
		email:    email,
	}
}

type createReviewRequest struct {
	Email  string                 `json:"email" binding:"required,email"`
	Filter map[string]interface{} `json:"filter" binding:"required"`
}

// CreateReview handles POST /server/reviews/create: stores a review link
// bound to an evidence filter and emails it to the reviewer.
func (api *ReviewApi) CreateReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "email and filter are required")
		return
	}

	review, err := api.reviews.CreateReview(c.Request.Context(), req.Email, req.Filter)
	if err != nil {
		api.logger.Errorf("review create failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to create review")
		return
	}

	link := fmt.Sprintf("%s/review/%s", api.cfg.ResearchLoginURL, review.ReviewKey)
	if err := api.email.Send(req.Email, "Your Teacher Moments review link", link); err != nil {
		api.logger.Errorf("review email failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to email review link")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reviewKey": review.ReviewKey})
}

// GetReviews handles GET /server/reviews: resolves the researcher token to
// the review urls its email has been granted.
func (api *ReviewApi) GetReviews(c *gin.Context) {
	token := c.GetHeader(middlewares.TokenHeader)
	if token == "" {
		utils.Error(c, http.StatusUnauthorized, "missing researcher token")
		return
	}

	urls, err := api.reviews.AccessURLsForToken(c.Request.Context(), token)
	if err != nil {
		api.logger.Errorf("review url lookup failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to resolve reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": urls})
}

// GetApples handles GET /server/apples/:key: anonymized responses for
// apples-to-apples style group reviewing. Identity fields are stripped so a
// group can compare responses without knowing who wrote what.
func (api *ReviewApi) GetApples(c *gin.Context) {
	key := c.Param("key")
	review, err := api.reviews.GetReview(c.Request.Context(), key)
	if err != nil {
		api.logger.Warnf("rejected apples fetch: %v", err)
		utils.Error(c, http.StatusUnauthorized, "unknown review key")
		return
	}

	filter, err := reviewFilter(review)
	if err != nil {
		api.logger.Errorf("review filter unreadable: %v", err)
		utils.Error(c, http.StatusInternalServerError, "review filter unreadable")
		return
	}

	rows, err := api.evidence.ListByTypes(c.Request.Context(), filter.App, filter.Types, applesLimit)
	if err != nil {
		api.logger.Errorf("apples query failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to load responses")
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": anonymize(rows, api.logger)})
}
