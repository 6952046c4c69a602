package session_api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	internal_evidence "github.com/teachermoments/moments/api/moment-api/internal/evidence"
	internal_question "github.com/teachermoments/moments/api/moment-api/internal/question"
	internal_recorder "github.com/teachermoments/moments/api/moment-api/internal/recorder"
	internal_session "github.com/teachermoments/moments/api/moment-api/internal/session"
	internal_storage "github.com/teachermoments/moments/api/moment-api/internal/storage"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

const defaultApp = "threeflows"

// control is one client action frame on the session socket.
type control struct {
	Action   string                 `json:"action"`
	Event    string                 `json:"event,omitempty"`
	Response map[string]interface{} `json:"response,omitempty"`
}

// SessionApi runs scenario sessions over a websocket: the question engine
// and the audio recorder flow live server-side, the client just sends
// actions and audio frames and renders whatever comes back.
type SessionApi struct {
	cfg       *config.AppConfig
	logger    commons.Logger
	questions internal_question.Store
	evidence  internal_evidence.Store
	blobs     internal_storage.BlobStore
	upgrader  websocket.Upgrader
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector, blobs internal_storage.BlobStore) *SessionApi {
	return &SessionApi{
		cfg:       cfg,
		logger:    logger,
		questions: internal_question.NewStore(postgres, logger),
		evidence:  internal_evidence.NewStore(postgres, logger),
		blobs:     blobs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 << 10,
			WriteBufferSize: 16 << 10,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run handles GET /teachermoments/session. One socket is one session: the
// current question bank is fixed at connect time, every engine and recorder
// event is persisted as evidence, and the rendered state is pushed to the
// client after each action.
func (api *SessionApi) Run(c *gin.Context) {
	app := c.DefaultQuery("app", defaultApp)
	version, err := strconv.Atoi(c.DefaultQuery("version", "1"))
	if err != nil {
		version = 1
	}

	conn, err := api.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Warnf("session upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	document, err := api.questions.Latest(c.Request.Context())
	if err != nil {
		api.logger.Errorf("failed to load question bank: %v", err)
		conn.WriteJSON(gin.H{"error": "question bank unavailable"})
		return
	}

	runner := newSessionRunner(api, conn, app, version, currentQuestions(document))
	runner.loop(c)
}

// currentQuestions pulls the active list out of the authored document.
func currentQuestions(document map[string]interface{}) []internal_session.Question {
	raw, _ := document["currentQuestions"].([]interface{})
	questions := make([]internal_session.Question, 0, len(raw))
	for _, item := range raw {
		if q, ok := item.(map[string]interface{}); ok {
			questions = append(questions, internal_session.Question(q))
		}
	}
	return questions
}

// sessionRunner holds the per-connection state: one engine, one recorder
// flow, and the capture buffer for the take in progress.
type sessionRunner struct {
	logger commons.Logger
	conn   *websocket.Conn

	writeMu sync.Mutex

	engine *internal_session.Engine
	flow   *internal_recorder.Flow

	capture bytes.Buffer
}

func newSessionRunner(api *SessionApi, conn *websocket.Conn, app string, version int, questions []internal_session.Question) *sessionRunner {
	r := &sessionRunner{
		logger: api.logger,
		conn:   conn,
	}

	sink := internal_evidence.NewSessionSink(api.evidence, app, version, api.logger)

	questionEl := func(question interface{}, _ internal_session.BoundLog, _ internal_session.BoundSubmit, responses []internal_session.ResponseRecord) interface{} {
		return gin.H{"kind": "question", "question": question, "responses": responses}
	}
	summaryEl := func(questions []internal_session.Question, responses []internal_session.ResponseRecord) interface{} {
		return gin.H{"kind": "summary", "questions": questions, "responses": responses}
	}
	r.engine = internal_session.NewEngine(api.logger, sink, questionEl, summaryEl)
	r.engine.Start(questions)

	transport := internal_storage.NewUploadTransport(api.blobs, api.logger)
	dest := uuid.New().String() + ".wav"
	r.flow = internal_recorder.NewFlow(api.logger, sink, transport, dest, func(result internal_recorder.Result) {
		r.push(gin.H{"kind": "uploaded", "uploadedUrl": result.UploadedURL, "downloadUrl": result.DownloadURL})
	})

	return r
}

// push serializes one server frame. Upload completion lands from the
// transport goroutine, so writes are serialized here.
func (r *sessionRunner) push(message interface{}) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.conn.WriteJSON(message); err != nil {
		r.logger.Warnf("session push failed: %v", err)
	}
}

func (r *sessionRunner) pushRender() {
	r.push(r.engine.Render())
}

func (r *sessionRunner) pushStep() {
	r.push(gin.H{"kind": "recorder", "step": r.flow.Step()})
}

func (r *sessionRunner) loop(c *gin.Context) {
	r.pushRender()

	for {
		messageType, data, err := r.conn.ReadMessage()
		if err != nil {
			r.logger.Debugf("session socket closed: %v", err)
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if r.flow.State().IsRecording {
				r.capture.Write(data)
			}
		case websocket.TextMessage:
			var ctl control
			if err := json.Unmarshal(data, &ctl); err != nil {
				r.logger.Warnf("ignoring malformed session frame: %v", err)
				continue
			}
			r.handle(c, ctl)
		}
	}
}

func (r *sessionRunner) handle(c *gin.Context, ctl control) {
	switch ctl.Action {
	case "response":
		r.engine.SubmitResponse(r.engine.NextQuestion(), internal_session.Response(ctl.Response))
		r.pushRender()

	case "log":
		if ctl.Event == "" {
			r.logger.Warn("log action without an event name, dropped")
			return
		}
		r.engine.LogWithQuestion(r.engine.NextQuestion(), ctl.Event, internal_session.Response(ctl.Response))

	case "record":
		r.capture.Reset()
		r.flow.Record()
		r.pushStep()

	case "done":
		r.flow.DoneRecording()
		blob := make([]byte, r.capture.Len())
		copy(blob, r.capture.Bytes())
		r.flow.DeliverCapture(blob)
		r.pushStep()

	case "submit":
		r.flow.Submit(c.Request.Context())
		r.pushStep()

	case "retry":
		r.capture.Reset()
		r.flow.Retry()
		r.pushStep()

	default:
		r.logger.Warnf("unknown session action: %q", ctl.Action)
	}
}
