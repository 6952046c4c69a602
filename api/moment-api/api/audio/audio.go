package audio_api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	internal_recorder "github.com/teachermoments/moments/api/moment-api/internal/recorder"
	internal_review "github.com/teachermoments/moments/api/moment-api/internal/review"
	internal_storage "github.com/teachermoments/moments/api/moment-api/internal/storage"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/utils"
)

// maxWavBytes caps a single uploaded WAV response.
const maxWavBytes = 50 << 20

// AudioApi writes and reads WAV responses. Writes are open (they come from
// active sessions); reads require a known review key.
type AudioApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	blobs    internal_storage.BlobStore
	reviews  internal_review.Store
	upgrader websocket.Upgrader
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector, blobs internal_storage.BlobStore) *AudioApi {
	return &AudioApi{
		cfg:     cfg,
		logger:  logger,
		blobs:   blobs,
		reviews: internal_review.NewStore(postgres, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 << 10,
			WriteBufferSize: 16 << 10,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// PostWav handles POST /teachermoments/wav: the raw audio/wav body is stored
// under a fresh id and the remote reference returned.
func (api *AudioApi) PostWav(c *gin.Context) {
	reader := http.MaxBytesReader(c.Writer, c.Request.Body, maxWavBytes)
	data, err := io.ReadAll(reader)
	if err != nil {
		utils.Error(c, http.StatusRequestEntityTooLarge, "audio body too large")
		return
	}
	if len(data) == 0 {
		utils.Error(c, http.StatusBadRequest, "empty audio body")
		return
	}

	id := uuid.New().String()
	url, err := api.blobs.Put(c.Request.Context(), id+".wav", data)
	if err != nil {
		api.logger.Errorf("wav store failed: %v", err)
		utils.Error(c, http.StatusInternalServerError, "failed to store audio")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "url": url})
}

// GetWav handles GET /teachermoments/wav/:id.wav for reviewers holding a
// valid review key.
func (api *AudioApi) GetWav(c *gin.Context) {
	reviewKey := c.Query("reviewKey")
	if reviewKey == "" {
		utils.Error(c, http.StatusUnauthorized, "missing review key")
		return
	}
	if _, err := api.reviews.GetReview(c.Request.Context(), reviewKey); err != nil {
		api.logger.Warnf("rejected audio fetch: %v", err)
		utils.Error(c, http.StatusUnauthorized, "unknown review key")
		return
	}

	api.streamWav(c)
}

// StreamWav writes the stored WAV for an already-authorized request.
func (api *AudioApi) StreamWav(c *gin.Context) {
	api.streamWav(c)
}

func (api *AudioApi) streamWav(c *gin.Context) {
	// Links use "<id>.wav"; the key in the blob store is the bare id.
	id := strings.TrimSuffix(c.Param("id"), ".wav")
	data, err := api.blobs.Get(c.Request.Context(), id+".wav")
	if err != nil {
		api.logger.Warnf("audio fetch failed for %s: %v", id, err)
		utils.Error(c, http.StatusNotFound, "audio not found")
		return
	}
	c.Data(http.StatusOK, "audio/wav", data)
}

// CaptureWav handles the websocket capture ingest: binary frames accumulate
// audio, a "stop" text frame materializes the blob, which is stored like a
// posted WAV and acknowledged with {id, url} before the socket closes.
func (api *AudioApi) CaptureWav(c *gin.Context) {
	conn, err := api.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Warnf("capture upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	capture := internal_recorder.NewWSCapture(api.logger, conn)
	err = capture.Run(func(blob []byte) {
		id := uuid.New().String()
		url, err := api.blobs.Put(c.Request.Context(), id+".wav", blob)
		if err != nil {
			api.logger.Errorf("capture store failed: %v", err)
			conn.WriteJSON(gin.H{"error": "failed to store audio"})
			return
		}
		conn.WriteJSON(gin.H{"id": id, "url": url})
	})
	if err != nil {
		api.logger.Debugf("capture ended without stop frame: %v", err)
	}
}
