package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/realtime"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type subscriptionServer interface {
	Serve(w http.ResponseWriter, r *http.Request, topic string) error
}

// RealtimeHandler upgrades clients to websocket timetable feeds.
type RealtimeHandler struct {
	hub    subscriptionServer
	logger *zap.Logger
}

// NewRealtimeHandler constructs the handler.
func NewRealtimeHandler(hub *realtime.Hub, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeHandler{hub: hub, logger: logger}
}

// Subscribe godoc
// @Summary Subscribe to timetable changes
// @Description Websocket stream of entry.created and entry.deleted events, optionally for one day.
// @Tags Realtime
// @Param day query string false "Day filter"
// @Success 101
// @Router /ws/timetable [get]
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	topic := realtime.TopicAll
	if raw := c.Query("day"); raw != "" {
		day, err := models.ParseWeekday(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day"))
			return
		}
		topic = string(day)
	}
	if err := h.hub.Serve(c.Writer, c.Request, topic); err != nil {
		// the upgrader has already written the HTTP error
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
	}
}
