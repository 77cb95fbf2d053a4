package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/realtime"
)

type subscriptionMock struct {
	topic string
}

func (m *subscriptionMock) Serve(w http.ResponseWriter, r *http.Request, topic string) error {
	m.topic = topic
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

func TestRealtimeHandlerTopics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"/ws/timetable":            realtime.TopicAll,
		"/ws/timetable?day=friday": "FRIDAY",
	}
	for target, topic := range cases {
		mock := &subscriptionMock{}
		handler := &RealtimeHandler{hub: mock, logger: zap.NewNop()}
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, target, nil)

		handler.Subscribe(c)

		assert.Equal(t, topic, mock.topic, target)
	}
}

func TestRealtimeHandlerRejectsUnknownDay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &subscriptionMock{}
	handler := &RealtimeHandler{hub: mock, logger: zap.NewNop()}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/ws/timetable?day=someday", nil)

	handler.Subscribe(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mock.topic)
}
