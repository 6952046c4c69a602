package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
)

func newLimitedRouter(t *testing.T, maxPerWindow int) (*gin.Engine, redismock.ClientMock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client, mock := redismock.NewClientMock()
	logger, err := commons.NewApplicationLogger(commons.Name("test-ratelimit"), commons.Level("debug"))
	require.NoError(t, err)

	router := gin.New()
	router.POST("/server/research/login",
		RateLimit(connectors.NewRedisConnectorFromClient(client, logger), logger, maxPerWindow),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, mock
}

func doRequest(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/server/research/login", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	router, mock := newLimitedRouter(t, 5)
	key := "ratelimit:/server/research/login:10.1.2.3"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Hour).SetVal(true)

	w := doRequest(router)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	router, mock := newLimitedRouter(t, 5)
	key := "ratelimit:/server/research/login:10.1.2.3"

	mock.ExpectIncr(key).SetVal(6)

	w := doRequest(router)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	router, mock := newLimitedRouter(t, 5)
	key := "ratelimit:/server/research/login:10.1.2.3"

	mock.ExpectIncr(key).SetErr(assert.AnError)

	w := doRequest(router)
	assert.Equal(t, http.StatusOK, w.Code)
}
