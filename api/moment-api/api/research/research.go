package research_api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	internal_evidence "github.com/teachermoments/moments/api/moment-api/internal/evidence"
	internal_notify "github.com/teachermoments/moments/api/moment-api/internal/notify"
	internal_review "github.com/teachermoments/moments/api/moment-api/internal/review"
	internal_storage "github.com/teachermoments/moments/api/moment-api/internal/storage"
	internal_transcribe "github.com/teachermoments/moments/api/moment-api/internal/transcribe"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/utils"
)

// defaultExportLimit bounds a research data export request.
const defaultExportLimit = 1000

// ResearchApi is the authenticated researcher surface: email login,
// evidence export, audio fetch and transcription.
type ResearchApi struct {
	cfg            *config.AppConfig
	logger         commons.Logger
	reviews        internal_review.Store
	evidence       internal_evidence.Store
	transcriptions internal_transcribe.Store
	transcriber    internal_transcribe.Transcriber
	blobs          internal_storage.BlobStore
	email          internal_notify.EmailSender
}

func New(
	cfg *config.AppConfig,
	logger commons.Logger,
	postgres connectors.PostgresConnector,
	blobs internal_storage.BlobStore,
	transcriber internal_transcribe.Transcriber,
	email internal_notify.EmailSender,
) *ResearchApi {
	return &ResearchApi{
		cfg:            cfg,
		logger:         logger,
		reviews:        internal_review.NewStore(postgres, logger),
		evidence:       internal_evidence.NewStore(postgres, logger),
		transcriptions: internal_transcribe.NewStore(postgres, logger),
		transcriber:    transcriber,
		blobs:          blobs,
		email:          email,
	}
}

type loginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Login handles POST /server/research/login: a known researcher email gets
// a short-lived signed link mailed to it. Unknown emails get the same
// response, so the endpoint does not leak who has access.
func (api *ResearchApi) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "a valid email is required")
		return
	}

	access, err := api.reviews.FindAccess(c.Request.Context(), req.Email)
	if err != nil {
		api.logger.Errorf("access lookup failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "login failed")
		return
	}
	if access == nil {
		api.logger.Warnf("login attempt for unknown researcher email")
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	linkToken, err := internal_review.SignLinkToken(api.cfg.Secret, req.Email)
	if err != nil {
		api.logger.Errorf("link token sign failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "login failed")
		return
	}

	link := fmt.Sprintf("%s?linkToken=%s", api.cfg.ResearchLoginURL, linkToken)
	if err := api.email.Send(req.Email, "Teacher Moments researcher login", link); err != nil {
		api.logger.Errorf("login email failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

type emailExchangeRequest struct {
	LinkToken string `json:"linkToken" binding:"required"`
}

// Email handles POST /server/research/email: exchanges an emailed link
// token for a stored session token.
func (api *ResearchApi) Email(c *gin.Context) {
	var req emailExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "linkToken is required")
		return
	}

	email, err := internal_review.VerifyLinkToken(api.cfg.Secret, req.LinkToken)
	if err != nil {
		api.logger.Warnf("link token rejected: %v", err)
		utils.Error(c, http.StatusUnauthorized, "link expired or invalid")
		return
	}

	token, err := api.reviews.IssueToken(c.Request.Context(), email)
	if err != nil {
		api.logger.Errorf("token issue failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token.Token, "expiresDate": token.ExpiresDate})
}

// Data handles GET /server/research/data: exports evidence rows for an app,
// optionally restricted by event type.
func (api *ResearchApi) Data(c *gin.Context) {
	app := c.DefaultQuery("app", "threeflows")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultExportLimit)))
	if err != nil || limit <= 0 || limit > defaultExportLimit {
		limit = defaultExportLimit
	}

	var rows []internal_evidence.Evidence
	if eventType := c.Query("type"); eventType != "" {
		rows, err = api.evidence.ListByTypes(c.Request.Context(), app, []string{eventType}, limit)
	} else {
		rows, err = api.evidence.ListByApp(c.Request.Context(), app, limit)
	}
	if err != nil {
		api.logger.Errorf("research export failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to export data")
		return
	}

	c.JSON(http.StatusOK, gin.H{"evidence": rows})
}

// Wav handles GET /server/research/wav/:id for researchers.
func (api *ResearchApi) Wav(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("id"), ".wav")
	data, err := api.blobs.Get(c.Request.Context(), id+".wav")
	if err != nil {
		api.logger.Warnf("research audio fetch failed for %s: %v", id, err)
		utils.Error(c, http.StatusNotFound, "audio not found")
		return
	}
	c.Data(http.StatusOK, "audio/wav", data)
}

// Transcribe handles POST /server/research/transcribe/:id.wav: returns the
// cached transcript, or fetches the audio and transcribes it once.
func (api *ResearchApi) Transcribe(c *gin.Context) {
	if api.transcriber == nil {
		utils.Error(c, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}
	id := strings.TrimSuffix(c.Param("id"), ".wav")

	cached, err := api.transcriptions.Find(c.Request.Context(), id)
	if err != nil {
		api.logger.Errorf("transcription lookup failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "transcription failed")
		return
	}
	if cached != nil {
		c.JSON(http.StatusOK, gin.H{"audioId": id, "transcript": cached.Transcript, "cached": true})
		return
	}

	wav, err := api.blobs.Get(c.Request.Context(), id+".wav")
	if err != nil {
		api.logger.Warnf("transcription audio fetch failed for %s: %v", id, err)
		utils.Error(c, http.StatusNotFound, "audio not found")
		return
	}

	transcript, err := api.transcriber.Transcribe(c.Request.Context(), wav)
	if err != nil {
		api.logger.Errorf("transcription failed for %s: %v", id, err)
		utils.Error(c, http.StatusBadGateway, "transcription failed")
		return
	}

	if _, err := api.transcriptions.Save(c.Request.Context(), id, transcript); err != nil {
		// The transcript is still valid without the cache row.
		api.logger.Warnf("transcription cache write failed for %s: %v", id, err)
	}

	c.JSON(http.StatusOK, gin.H{"audioId": id, "transcript": transcript, "cached": false})
}
