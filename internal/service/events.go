package service

import (
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/ws"
)

// EventPublisher pushes realtime events to subscribers. Satisfied by *ws.Hub.
type EventPublisher interface {
	Publish(topic string, event ws.Event)
}

// Publish marshals payload and publishes it. pub may be nil.
func Publish(pub EventPublisher, topic, eventType string, payload any) {
	if pub == nil {
		return
	}
	ev, err := ws.NewEvent(eventType, payload)
	if err != nil {
		logging.Error().Err(err).Str("event", eventType).Msg("marshal event")
		return
	}
	pub.Publish(topic, ev)
}
