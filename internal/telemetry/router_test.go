package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fieldwatch/cathodic-core/internal/command"
	"github.com/fieldwatch/cathodic-core/internal/settings"
	"github.com/fieldwatch/cathodic-core/internal/wire"
)

type mockResolver struct {
	acks []command.Ack
}

func (m *mockResolver) ResolveAck(_ context.Context, ack command.Ack) bool {
	m.acks = append(m.acks, ack)
	return true
}

type mockLiveness struct {
	deviceIDs []string
	intervals []time.Duration
	connected map[string]bool
}

func (m *mockLiveness) RecordActivity(deviceID string, interval time.Duration) {
	m.deviceIDs = append(m.deviceIDs, deviceID)
	m.intervals = append(m.intervals, interval)
	if m.connected == nil {
		m.connected = make(map[string]bool)
	}
	m.connected[deviceID] = true
}

func (m *mockLiveness) IsConnected(deviceID string) bool {
	return m.connected[deviceID]
}

type mockReadings struct {
	fields      map[string]float64
	transitions []bool
}

func (m *mockReadings) WriteReading(_ string, field string, value float64) {
	if m.fields == nil {
		m.fields = make(map[string]float64)
	}
	m.fields[field] = value
}

func (m *mockReadings) WriteConnectivity(_ string, connected bool) {
	m.transitions = append(m.transitions, connected)
}

func TestHandleDataUpdatesLivenessAndSettings(t *testing.T) {
	liveness := &mockLiveness{}
	store := settings.NewCache(nil)
	readings := &mockReadings{}
	r := NewRouter(&mockResolver{}, liveness, store, readings)

	payload := `{
		"Device ID": "123",
		"sender": "Device",
		"Parameters": {
			"Shunt Voltage": "075",
			"Shunt Current": 168,
			"Reference Fail": -80,
			"logging_interval": 10
		}
	}`
	if err := r.HandleData("devices/123/data", []byte(payload)); err != nil {
		t.Fatalf("HandleData() error = %v", err)
	}

	if len(liveness.deviceIDs) != 1 || liveness.deviceIDs[0] != "123" {
		t.Errorf("liveness devices = %v, want [123]", liveness.deviceIDs)
	}
	if liveness.intervals[0] != 10*time.Second {
		t.Errorf("reported interval = %v, want 10s", liveness.intervals[0])
	}

	// Reported values land decoded in the settings cache.
	s, err := store.Get(context.Background(), "123")
	if err != nil {
		t.Fatalf("settings Get() error = %v", err)
	}
	if s.Fields[wire.ParamShuntCurrent] != 16.8 {
		t.Errorf("Shunt Current = %v, want 16.8", s.Fields[wire.ParamShuntCurrent])
	}
	if s.Fields[wire.ParamReferenceFail] != -0.80 {
		t.Errorf("Reference Fail = %v, want -0.80", s.Fields[wire.ParamReferenceFail])
	}

	// Numeric readings forwarded to the time-series sink.
	if readings.fields[wire.ParamShuntVoltage] != 75.0 {
		t.Errorf("forwarded voltage = %v, want 75.0", readings.fields[wire.ParamShuntVoltage])
	}
}

func TestOnlineTransitionWrittenOnce(t *testing.T) {
	readings := &mockReadings{}
	r := NewRouter(&mockResolver{}, &mockLiveness{}, nil, readings)

	payload := `{"Device ID": "123", "sender": "Device", "Parameters": {}}`
	for i := 0; i < 3; i++ {
		if err := r.HandleData("devices/123/data", []byte(payload)); err != nil {
			t.Fatalf("HandleData() error = %v", err)
		}
	}

	// Only the first message flips the device online.
	if len(readings.transitions) != 1 || !readings.transitions[0] {
		t.Errorf("transitions = %v, want [true]", readings.transitions)
	}
}

func TestHandleDataSkipsServerEcho(t *testing.T) {
	liveness := &mockLiveness{}
	r := NewRouter(&mockResolver{}, liveness, nil, nil)

	payload := `{"Device ID": "123", "sender": "Server", "Parameters": {"Shunt Voltage": "075"}}`
	if err := r.HandleData("devices/123/data", []byte(payload)); err != nil {
		t.Fatalf("HandleData() error = %v", err)
	}
	if len(liveness.deviceIDs) != 0 {
		t.Error("server echo should not count as device activity")
	}
}

func TestHandleCommandsResolvesAck(t *testing.T) {
	resolver := &mockResolver{}
	liveness := &mockLiveness{}
	r := NewRouter(resolver, liveness, nil, nil)

	payload := `{
		"Device ID": "123",
		"sender": "Device",
		"CommandId": "cmd-1",
		"status": "success",
		"message": "applied"
	}`
	if err := r.HandleCommands("devices/123/commands", []byte(payload)); err != nil {
		t.Fatalf("HandleCommands() error = %v", err)
	}

	if len(resolver.acks) != 1 {
		t.Fatalf("resolved %d acks, want 1", len(resolver.acks))
	}
	ack := resolver.acks[0]
	if ack.CommandID != "cmd-1" || ack.Status != "success" || ack.Message != "applied" {
		t.Errorf("ack = %+v, want cmd-1/success/applied", ack)
	}

	// An ack is also device activity.
	if len(liveness.deviceIDs) != 1 || liveness.deviceIDs[0] != "123" {
		t.Errorf("liveness devices = %v, want [123]", liveness.deviceIDs)
	}
}

func TestHandleCommandsSkipsServerFrames(t *testing.T) {
	resolver := &mockResolver{}
	r := NewRouter(resolver, &mockLiveness{}, nil, nil)

	payload := `{"Device ID": "123", "sender": "Server", "CommandId": "cmd-1", "Message Type": "settings"}`
	if err := r.HandleCommands("devices/123/commands", []byte(payload)); err != nil {
		t.Fatalf("HandleCommands() error = %v", err)
	}
	if len(resolver.acks) != 0 {
		t.Error("our own settings frame must not be treated as an ack")
	}
}

func TestDeviceIDFallsBackToTopic(t *testing.T) {
	liveness := &mockLiveness{}
	r := NewRouter(&mockResolver{}, liveness, nil, nil)

	if err := r.HandleData("devices/456/data", []byte(`{"Parameters": {}}`)); err != nil {
		t.Fatalf("HandleData() error = %v", err)
	}
	if len(liveness.deviceIDs) != 1 || liveness.deviceIDs[0] != "456" {
		t.Errorf("liveness devices = %v, want [456] from topic", liveness.deviceIDs)
	}
}

func TestMalformedPayloadReturnsError(t *testing.T) {
	r := NewRouter(&mockResolver{}, &mockLiveness{}, nil, nil)

	if err := r.HandleData("devices/123/data", []byte("{not json")); err == nil {
		t.Error("malformed payload should return an error")
	}
}
