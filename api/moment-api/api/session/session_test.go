package session_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	internal_evidence "github.com/teachermoments/moments/api/moment-api/internal/evidence"
	internal_question "github.com/teachermoments/moments/api/moment-api/internal/question"
	"github.com/teachermoments/moments/config"
	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

type memoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (s *memoryBlobStore) Put(_ context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = map[string][]byte{}
	}
	s.blobs[key] = data
	return "https://blobs.test/" + key, nil
}

func (s *memoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("no blob for %s", key)
	}
	return data, nil
}

func newSessionServer(t *testing.T) (*httptest.Server, *memoryBlobStore, connectors.PostgresConnector) {
	t.Helper()

	logger, err := commons.NewApplicationLogger(commons.Name("test-session"), commons.Level("debug"))
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&internal_evidence.Evidence{}, &internal_question.QuestionSet{}))

	postgres := connectors.NewPostgresConnectorFromDB(db, logger)
	questions := internal_question.NewStore(postgres, logger)
	require.NoError(t, questions.Save(context.Background(), map[string]interface{}{
		"currentQuestions": []interface{}{
			map[string]interface{}{"id": 401, "text": "A student shouts out. What do you do?"},
			map[string]interface{}{"id": 402, "text": "The class goes silent. What do you say?"},
		},
		"archivedQuestions": []interface{}{},
	}))

	blobs := &memoryBlobStore{}
	cfg := &config.AppConfig{Environment: "development"}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := New(cfg, logger, postgres, blobs)
	engine.GET("/teachermoments/session", api.Run)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server, blobs, postgres
}

func dialSession(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/teachermoments/session?app=testapp&version=3"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func sendAction(t *testing.T, conn *websocket.Conn, action map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(action)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, body))
}

func TestSessionWalksQuestionsToSummary(t *testing.T) {
	server, _, postgres := newSessionServer(t)
	conn := dialSession(t, server)

	frame := readFrame(t, conn)
	require.Equal(t, "question", frame["kind"])
	question := frame["question"].(map[string]interface{})
	assert.EqualValues(t, 401, question["id"])

	sendAction(t, conn, map[string]interface{}{
		"action":   "response",
		"response": map[string]interface{}{"responseText": "I walk over calmly."},
	})
	frame = readFrame(t, conn)
	require.Equal(t, "question", frame["kind"])
	question = frame["question"].(map[string]interface{})
	assert.EqualValues(t, 402, question["id"])

	responses := frame["responses"].([]interface{})
	require.Len(t, responses, 1)
	first := responses[0].(map[string]interface{})
	assert.Equal(t, "I walk over calmly.", first["responseText"])
	assert.NotNil(t, first["question"])

	sendAction(t, conn, map[string]interface{}{
		"action":   "response",
		"response": map[string]interface{}{"responseText": "Let's take a breath together."},
	})
	frame = readFrame(t, conn)
	require.Equal(t, "summary", frame["kind"])
	assert.Len(t, frame["responses"].([]interface{}), 2)

	// Every submit lands in the evidence table under the connect-time app.
	logger, err := commons.NewApplicationLogger(commons.Name("test-session"))
	require.NoError(t, err)
	rows, err := internal_evidence.NewStore(postgres, logger).ListByApp(context.Background(), "testapp", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSessionRecorderCycleUploadsAudio(t *testing.T) {
	server, blobs, _ := newSessionServer(t)
	conn := dialSession(t, server)

	frame := readFrame(t, conn)
	require.Equal(t, "question", frame["kind"])

	sendAction(t, conn, map[string]interface{}{"action": "record"})
	frame = readFrame(t, conn)
	assert.Equal(t, "recording", frame["step"])

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("RIFF")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("data")))

	sendAction(t, conn, map[string]interface{}{"action": "done"})
	frame = readFrame(t, conn)
	assert.Equal(t, "reviewing", frame["step"])

	sendAction(t, conn, map[string]interface{}{"action": "submit"})

	// The step push and the upload completion race on the socket; collect
	// both and pick out the completion frame.
	var uploaded map[string]interface{}
	for i := 0; i < 2; i++ {
		frame = readFrame(t, conn)
		if frame["kind"] == "uploaded" {
			uploaded = frame
		}
	}
	require.NotNil(t, uploaded)
	assert.True(t, strings.HasPrefix(uploaded["uploadedUrl"].(string), "https://blobs.test/"))
	assert.True(t, strings.HasPrefix(uploaded["downloadUrl"].(string), "local://"))

	blobs.mu.Lock()
	defer blobs.mu.Unlock()
	require.Len(t, blobs.blobs, 1)
	for _, blob := range blobs.blobs {
		assert.Equal(t, []byte("RIFFdata"), blob)
	}
}

func TestSessionRetryDiscardsTake(t *testing.T) {
	server, blobs, _ := newSessionServer(t)
	conn := dialSession(t, server)
	readFrame(t, conn)

	sendAction(t, conn, map[string]interface{}{"action": "record"})
	readFrame(t, conn)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("first take")))
	sendAction(t, conn, map[string]interface{}{"action": "done"})
	readFrame(t, conn)

	sendAction(t, conn, map[string]interface{}{"action": "retry"})
	frame := readFrame(t, conn)
	assert.Equal(t, "recording", frame["step"])

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("second take")))
	sendAction(t, conn, map[string]interface{}{"action": "done"})
	frame = readFrame(t, conn)
	assert.Equal(t, "reviewing", frame["step"])

	sendAction(t, conn, map[string]interface{}{"action": "submit"})
	for i := 0; i < 2; i++ {
		readFrame(t, conn)
	}

	blobs.mu.Lock()
	defer blobs.mu.Unlock()
	for _, blob := range blobs.blobs {
		assert.Equal(t, []byte("second take"), blob)
	}
}
