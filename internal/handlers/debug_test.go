package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codevcn/thunderchat-client/internal/engine"
	"github.com/codevcn/thunderchat-client/internal/handlers"
	"github.com/codevcn/thunderchat-client/internal/mocks"
	"github.com/codevcn/thunderchat-client/internal/models"
)

func setupRouter(eng *engine.Engine, enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers.RegisterDebugRoutes(router, eng, nil, enabled)
	return router
}

func newEngine(history *mocks.HistoryAPIMock, push *mocks.PushCommandsMock) *engine.Engine {
	return engine.New(engine.Config{LocalUserID: 1, PageSize: 10}, engine.Deps{
		History: history,
		Push:    push,
		Send:    new(mocks.SendTransportMock),
		Log:     zap.NewNop().Sugar(),
	})
}

func TestDebugWindowWithoutConversation(t *testing.T) {
	router := setupRouter(newEngine(new(mocks.HistoryAPIMock), new(mocks.PushCommandsMock)), true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/window", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDebugWindowReturnsSnapshot(t *testing.T) {
	history := new(mocks.HistoryAPIMock)
	push := new(mocks.PushCommandsMock)
	eng := newEngine(history, push)

	history.On("FetchPage", mock.Anything, int64(7), models.KindDirect, int64(0), engine.DirectionOlder, 10).
		Return([]models.Message{{ID: 100, ConversationID: 7, AuthorID: 1, Status: models.StatusSent}}, nil).Once()
	push.On("SetOffset", int64(7), int64(100)).Return(nil).Once()
	require.NoError(t, eng.Open(context.Background(), 7, models.KindDirect))

	router := setupRouter(eng, true)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/window", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Window models.WindowSnapshot `json:"window"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.Window.ConversationID)
	require.Len(t, body.Window.Messages, 1)
}

func TestDebugRoutesDisabled(t *testing.T) {
	router := setupRouter(newEngine(new(mocks.HistoryAPIMock), new(mocks.PushCommandsMock)), false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/window", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Metrics stay on even with debug routes off.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chat_client_")
}

func TestDebugAuditWithoutEmitter(t *testing.T) {
	router := setupRouter(newEngine(new(mocks.HistoryAPIMock), new(mocks.PushCommandsMock)), true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
