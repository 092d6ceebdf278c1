// Package notify publishes command lifecycle events on the core
// notification topics so operator dashboards can react without polling.
//
// Notifications are fire-and-forget: a failed publish is logged and
// dropped, because the command state machine, not the notification
// stream, is the source of truth.
package notify

import (
	"encoding/json"
	"time"
)

// Event types published on the notification topics.
const (
	EventCommandSent         = "command_sent"
	EventCommandAcknowledged = "command_acknowledged"
	EventCommandTimeout      = "command_timeout"
)

// Logger defines the logging interface used by the Sink.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Publisher publishes notification payloads. Satisfied by the
// infrastructure MQTT client.
type Publisher interface {
	PublishQoS(topic string, payload []byte) error
}

// TopicFunc builds the notification topic for an event type.
type TopicFunc func(eventType string) string

// Sink publishes command lifecycle notifications. It satisfies the
// dispatcher's Notifier interface.
type Sink struct {
	publisher Publisher
	topic     TopicFunc
	logger    Logger
	now       func() time.Time
}

// NewSink creates a notification sink.
func NewSink(publisher Publisher, topic TopicFunc) *Sink {
	return &Sink{
		publisher: publisher,
		topic:     topic,
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the sink.
func (s *Sink) SetLogger(logger Logger) {
	s.logger = logger
}

// CommandSent announces a newly dispatched command.
func (s *Sink) CommandSent(deviceID, commandID string, changedFields []string) {
	s.publish(EventCommandSent, map[string]any{
		"device_id":      deviceID,
		"command_id":     commandID,
		"changed_fields": changedFields,
	})
}

// CommandResolved announces a command reaching a terminal state.
func (s *Sink) CommandResolved(deviceID, commandID string, status string) {
	event := EventCommandAcknowledged
	if status == "TIMEOUT" {
		event = EventCommandTimeout
	}
	s.publish(event, map[string]any{
		"device_id":  deviceID,
		"command_id": commandID,
		"status":     status,
	})
}

func (s *Sink) publish(event string, fields map[string]any) {
	fields["event"] = event
	fields["timestamp"] = s.now().UTC().Format(time.RFC3339)

	payload, err := json.Marshal(fields)
	if err != nil {
		s.logger.Warn("notification marshal failed", "event", event, "error", err)
		return
	}
	if err := s.publisher.PublishQoS(s.topic(event), payload); err != nil {
		s.logger.Warn("notification publish failed", "event", event, "error", err)
		return
	}
	s.logger.Debug("notification published", "event", event)
}
