package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldwatch/cathodic-core/internal/command"
	"github.com/fieldwatch/cathodic-core/internal/infrastructure/mqtt"
	"github.com/fieldwatch/cathodic-core/internal/settings"
	"github.com/fieldwatch/cathodic-core/internal/wire"
)

// Logger defines the logging interface used by the Router.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Subscriber is the slice of the MQTT client the router needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// AckResolver resolves device acknowledgments against pending commands.
type AckResolver interface {
	ResolveAck(ctx context.Context, ack command.Ack) bool
}

// LivenessRecorder tracks device activity. IsConnected reflects the
// state before the current message is recorded, which lets the router
// spot offline-to-online transitions.
type LivenessRecorder interface {
	RecordActivity(deviceID string, loggingInterval time.Duration)
	IsConnected(deviceID string) bool
}

// SettingsReconciler merges device-reported values into the canonical
// settings snapshot. Satisfied by the settings cache.
type SettingsReconciler interface {
	ApplyDelta(ctx context.Context, deviceID string, fields map[string]any) (*settings.DeviceSettings, error)
}

// ReadingSink receives decoded numeric telemetry and connectivity
// transitions. Satisfied by the InfluxDB client; nil disables
// time-series forwarding.
type ReadingSink interface {
	WriteReading(deviceID string, field string, value float64)
	WriteConnectivity(deviceID string, connected bool)
}

// inboundFrame is the superset of fields devices publish on either
// topic. Acks carry CommandId and status; telemetry carries Parameters.
type inboundFrame struct {
	DeviceID   string         `json:"Device ID"`
	Sender     string         `json:"sender"`
	CommandID  string         `json:"CommandId"`
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Error      string         `json:"error"`
	Response   any            `json:"response"`
	Parameters map[string]any `json:"Parameters"`
}

// Router subscribes to the device topics and fans inbound messages out
// to liveness, command resolution, settings reconciliation, and the
// time-series sink.
type Router struct {
	resolver AckResolver
	liveness LivenessRecorder
	settings SettingsReconciler
	readings ReadingSink // nil disables forwarding
	logger   Logger
}

// NewRouter creates a telemetry router. readings may be nil.
func NewRouter(resolver AckResolver, liveness LivenessRecorder, settings SettingsReconciler, readings ReadingSink) *Router {
	return &Router{
		resolver: resolver,
		liveness: liveness,
		settings: settings,
		readings: readings,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// Start subscribes to the device data and command wildcards.
func (r *Router) Start(sub Subscriber) error {
	topics := mqtt.Topics{}

	if err := sub.Subscribe(topics.AllDeviceData(), 1, r.HandleData); err != nil {
		return fmt.Errorf("subscribing to device data: %w", err)
	}
	if err := sub.Subscribe(topics.AllDeviceCommands(), 1, r.HandleCommands); err != nil {
		return fmt.Errorf("subscribing to device commands: %w", err)
	}

	r.logger.Info("telemetry router started",
		"data_topic", topics.AllDeviceData(), "command_topic", topics.AllDeviceCommands())
	return nil
}

// HandleData processes a message on devices/{id}/data: refreshes
// liveness, reconciles reported parameters into the settings cache, and
// forwards numeric readings to the time-series sink.
func (r *Router) HandleData(topic string, payload []byte) error {
	frame, deviceID, err := r.decode(topic, payload)
	if err != nil {
		return err
	}
	if frame.Sender == command.SenderServer {
		return nil
	}

	decoded, warnings := wire.DecodeParameters(frame.Parameters)
	for _, w := range warnings {
		r.logger.Warn("telemetry field passed through undecoded",
			"device_id", deviceID, "field", w.Field, "reason", w.Reason)
	}

	r.recordActivity(deviceID, decoded)

	if len(decoded) > 0 && r.settings != nil {
		if _, err := r.settings.ApplyDelta(context.Background(), deviceID, decoded); err != nil {
			r.logger.Warn("settings reconciliation failed", "device_id", deviceID, "error", err)
		}
	}

	if r.readings != nil {
		for field, value := range decoded {
			if f, ok := value.(float64); ok {
				r.readings.WriteReading(deviceID, field, f)
			}
		}
	}

	r.logger.Debug("telemetry processed", "device_id", deviceID, "fields", len(decoded))
	return nil
}

// HandleCommands processes a message on devices/{id}/commands. Server
// frames echoed back by the broker are skipped; everything else is
// treated as a device acknowledgment.
func (r *Router) HandleCommands(topic string, payload []byte) error {
	frame, deviceID, err := r.decode(topic, payload)
	if err != nil {
		return err
	}
	if frame.Sender == command.SenderServer {
		return nil
	}

	r.recordActivity(deviceID, nil)

	if frame.CommandID == "" {
		r.logger.Debug("device message without command ID ignored", "device_id", deviceID)
		return nil
	}

	ack := command.Ack{
		CommandID: frame.CommandID,
		Status:    frame.Status,
		Message:   frame.Message,
		Error:     frame.Error,
		Response:  frame.Response,
	}
	if !r.resolver.ResolveAck(context.Background(), ack) {
		r.logger.Debug("unmatched ack dropped", "device_id", deviceID, "command_id", ack.CommandID)
	}
	return nil
}

// decode parses an inbound payload and determines the device ID, with
// the topic segment as the fallback when the frame omits it.
func (r *Router) decode(topic string, payload []byte) (*inboundFrame, string, error) {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return nil, "", fmt.Errorf("decoding frame on %s: %w", topic, err)
	}

	deviceID := frame.DeviceID
	if deviceID == "" {
		deviceID = mqtt.DeviceIDFromTopic(topic)
	}
	if deviceID == "" {
		return nil, "", fmt.Errorf("message on %s has no device ID", topic)
	}
	return &frame, deviceID, nil
}

// recordActivity refreshes liveness, passing along a reported logging
// interval when the decoded parameters include one. A device that was
// not considered connected before this message is written to the
// time-series sink as an online transition.
func (r *Router) recordActivity(deviceID string, decoded map[string]any) {
	if r.liveness == nil {
		return
	}

	wasConnected := r.liveness.IsConnected(deviceID)

	var interval time.Duration
	if decoded != nil {
		if secs, ok := wire.ToInt(decoded[wire.ParamLoggingInterval]); ok && secs > 0 {
			interval = time.Duration(secs) * time.Second
		}
	}
	r.liveness.RecordActivity(deviceID, interval)

	if !wasConnected {
		r.logger.Info("device online", "device_id", deviceID)
		if r.readings != nil {
			r.readings.WriteConnectivity(deviceID, true)
		}
	}
}
