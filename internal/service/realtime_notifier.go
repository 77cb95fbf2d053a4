package service

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/realtime"
)

const (
	eventEntryCreated = "entry.created"
	eventEntryDeleted = "entry.deleted"
)

type publisher interface {
	Publish(msg realtime.Message) bool
}

// RealtimeNotifier pushes index changes to websocket subscribers of the entry's day.
type RealtimeNotifier struct {
	hub    publisher
	logger *zap.Logger
}

// NewRealtimeNotifier constructs a RealtimeNotifier.
func NewRealtimeNotifier(hub publisher, logger *zap.Logger) *RealtimeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeNotifier{hub: hub, logger: logger}
}

// EntryCommitted publishes an entry.created event.
func (n *RealtimeNotifier) EntryCommitted(entry models.ScheduleEntry) {
	n.publish(eventEntryCreated, entry)
}

// EntryDeleted publishes an entry.deleted event.
func (n *RealtimeNotifier) EntryDeleted(entry models.ScheduleEntry) {
	n.publish(eventEntryDeleted, entry)
}

func (n *RealtimeNotifier) publish(kind string, entry models.ScheduleEntry) {
	payload, err := json.Marshal(dto.TimetableEvent{Type: kind, Entry: entry})
	if err != nil {
		n.logger.Warn("failed to encode timetable event", zap.String("entry_id", entry.ID), zap.Error(err))
		return
	}
	topic := realtime.TopicAll
	if entry.TimeSlot != nil {
		topic = string(entry.TimeSlot.Day)
	}
	n.hub.Publish(realtime.Message{Topic: topic, Payload: payload})
}
