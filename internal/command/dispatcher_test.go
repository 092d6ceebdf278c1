package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fieldwatch/cathodic-core/internal/settings"
	"github.com/fieldwatch/cathodic-core/internal/wire"
)

// mockPublisher records published frames and can simulate failure.
type mockPublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (m *mockPublisher) PublishQoS(topic string, payload []byte) error {
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topic)
	m.payloads = append(m.payloads, payload)
	return nil
}

func newTestDispatcher(pub *mockPublisher, ackTimeout time.Duration, historyCap int) *Dispatcher {
	d := NewDispatcher(settings.NewCache(nil), pub, ackTimeout, historyCap)
	seq := 0
	d.newID = func() string {
		seq++
		return fmt.Sprintf("cmd-%d", seq)
	}
	return d
}

func TestDispatchPublishesFullFrame(t *testing.T) {
	pub := &mockPublisher{}
	d := newTestDispatcher(pub, time.Minute, 10)

	cmd, err := d.Dispatch(context.Background(), "123", map[string]any{
		wire.ParamElectrode: "Zinc",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if cmd.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", cmd.Status)
	}

	if len(pub.topics) != 1 || pub.topics[0] != "devices/123/commands" {
		t.Fatalf("published to %v, want devices/123/commands", pub.topics)
	}

	var frame map[string]any
	if err := json.Unmarshal(pub.payloads[0], &frame); err != nil {
		t.Fatalf("unmarshalling frame: %v", err)
	}
	if frame["Device ID"] != "123" {
		t.Errorf("Device ID = %v, want 123", frame["Device ID"])
	}
	if frame["Message Type"] != "settings" {
		t.Errorf("Message Type = %v, want settings", frame["Message Type"])
	}
	if frame["sender"] != "Server" {
		t.Errorf("sender = %v, want Server", frame["sender"])
	}
	if frame["CommandId"] != cmd.ID {
		t.Errorf("CommandId = %v, want %s", frame["CommandId"], cmd.ID)
	}

	params, ok := frame["Parameters"].(map[string]any)
	if !ok {
		t.Fatal("frame has no Parameters object")
	}
	// A one-field delta still produces the complete parameter set.
	if len(params) != len(wire.ParameterNames) {
		t.Errorf("frame has %d parameters, want %d", len(params), len(wire.ParameterNames))
	}
	if params[wire.ParamElectrode] != 1.0 {
		t.Errorf("Electrode = %v, want 1", params[wire.ParamElectrode])
	}
	// Zinc pulls in the -0.80 reference-fail default, encoded signed.
	if params[wire.ParamReferenceFail] != "-080" {
		t.Errorf("Reference Fail = %v, want \"-080\"", params[wire.ParamReferenceFail])
	}
}

func TestDispatchSnapshotPublishesWithoutDelta(t *testing.T) {
	store := settings.NewCache(nil)
	pub := &mockPublisher{}
	d := NewDispatcher(store, pub, time.Minute, 10)
	ctx := context.Background()

	before, _ := store.Get(ctx, "123")

	cmd, err := d.DispatchSnapshot(ctx, "123")
	if err != nil {
		t.Fatalf("DispatchSnapshot() error = %v", err)
	}
	if cmd.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", cmd.Status)
	}
	if len(cmd.ChangedFields) != 0 {
		t.Errorf("ChangedFields = %v, want empty", cmd.ChangedFields)
	}

	if len(pub.topics) != 1 || pub.topics[0] != "devices/123/commands" {
		t.Fatalf("published to %v, want devices/123/commands", pub.topics)
	}

	// Resending must not change the cached snapshot.
	after, _ := store.Get(ctx, "123")
	if len(after.Fields) != len(before.Fields) {
		t.Errorf("snapshot changed: %d fields -> %d", len(before.Fields), len(after.Fields))
	}

	var frame map[string]any
	if err := json.Unmarshal(pub.payloads[0], &frame); err != nil {
		t.Fatalf("unmarshalling frame: %v", err)
	}
	params, ok := frame["Parameters"].(map[string]any)
	if !ok {
		t.Fatal("frame has no Parameters object")
	}
	if len(params) != len(wire.ParameterNames) {
		t.Errorf("frame has %d parameters, want %d", len(params), len(wire.ParameterNames))
	}

	if _, err := d.DispatchSnapshot(ctx, ""); !errors.Is(err, ErrEmptyDeviceID) {
		t.Errorf("empty device error = %v, want ErrEmptyDeviceID", err)
	}
}

func TestDispatchValidation(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, time.Minute, 10)
	ctx := context.Background()

	if _, err := d.Dispatch(ctx, "", map[string]any{"x": 1}); !errors.Is(err, ErrEmptyDeviceID) {
		t.Errorf("empty device error = %v, want ErrEmptyDeviceID", err)
	}
	if _, err := d.Dispatch(ctx, "123", nil); !errors.Is(err, ErrEmptyDelta) {
		t.Errorf("empty delta error = %v, want ErrEmptyDelta", err)
	}
}

func TestDispatchPublishFailureRollsBack(t *testing.T) {
	store := settings.NewCache(nil)
	pub := &mockPublisher{err: errors.New("broker gone")}
	d := NewDispatcher(store, pub, time.Minute, 10)
	ctx := context.Background()

	before, _ := store.Get(ctx, "123")

	_, err := d.Dispatch(ctx, "123", map[string]any{wire.ParamShuntVoltage: 99.0})
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("Dispatch() error = %v, want ErrPublishFailed", err)
	}

	after, _ := store.Get(ctx, "123")
	if after.Fields[wire.ParamShuntVoltage] != before.Fields[wire.ParamShuntVoltage] {
		t.Errorf("cache drifted after failed publish: %v -> %v",
			before.Fields[wire.ParamShuntVoltage], after.Fields[wire.ParamShuntVoltage])
	}
	if d.PendingCount() != 0 {
		t.Errorf("pending count = %d, want 0 after failed publish", d.PendingCount())
	}
}

func TestResolveAckSuccess(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, time.Minute, 10)
	ctx := context.Background()

	// Each clock read advances 100ms, so dispatch-to-ack is exactly one step.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	d.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * 100 * time.Millisecond)
	}

	cmd, err := d.Dispatch(ctx, "123", map[string]any{wire.ParamShuntVoltage: 75.0})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if !d.ResolveAck(ctx, Ack{CommandID: cmd.ID, Status: "success", Message: "applied"}) {
		t.Fatal("ResolveAck() = false, want true")
	}

	got, err := d.Get(cmd.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusSuccess {
		t.Errorf("status = %s, want SUCCESS", got.Status)
	}
	if got.Message != "applied" {
		t.Errorf("message = %q, want %q", got.Message, "applied")
	}
	if got.ResolvedAt == nil {
		t.Error("ResolvedAt not set")
	}
	if got.ResponseTime != 100*time.Millisecond {
		t.Errorf("ResponseTime = %v, want 100ms", got.ResponseTime)
	}
	if d.PendingCount() != 0 {
		t.Errorf("pending count = %d, want 0", d.PendingCount())
	}
}

func TestResolveAckFailed(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, time.Minute, 10)
	ctx := context.Background()

	cmd, _ := d.Dispatch(ctx, "123", map[string]any{wire.ParamShuntVoltage: 75.0})
	d.ResolveAck(ctx, Ack{CommandID: cmd.ID, Status: "failed", Error: "out of range"})

	got, _ := d.Get(cmd.ID)
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want FAILED", got.Status)
	}
	if got.Error != "out of range" {
		t.Errorf("error = %q, want %q", got.Error, "out of range")
	}
}

func TestTerminalStateIsFinal(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, time.Minute, 10)
	ctx := context.Background()

	cmd, _ := d.Dispatch(ctx, "123", map[string]any{wire.ParamShuntVoltage: 75.0})
	d.ResolveAck(ctx, Ack{CommandID: cmd.ID, Status: "failed"})

	// A second, contradictory ack must be dropped.
	if d.ResolveAck(ctx, Ack{CommandID: cmd.ID, Status: "success"}) {
		t.Error("second ack for a terminal command should be ignored")
	}
	got, _ := d.Get(cmd.ID)
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want FAILED unchanged", got.Status)
	}
}

func TestUnknownAckIgnored(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, time.Minute, 10)
	if d.ResolveAck(context.Background(), Ack{CommandID: "never-sent", Status: "success"}) {
		t.Error("ack for unknown command should be ignored")
	}
}

func TestAckTimeout(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, 20*time.Millisecond, 10)
	ctx := context.Background()

	cmd, _ := d.Dispatch(ctx, "123", map[string]any{wire.ParamShuntVoltage: 75.0})

	deadline := time.Now().Add(time.Second)
	for d.PendingCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("command never timed out")
		}
		time.Sleep(5 * time.Millisecond)
	}

	got, err := d.Get(cmd.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusTimeout {
		t.Errorf("status = %s, want TIMEOUT", got.Status)
	}

	// A late ack after timeout must not flip the terminal state.
	if d.ResolveAck(ctx, Ack{CommandID: cmd.ID, Status: "success"}) {
		t.Error("late ack after timeout should be ignored")
	}
	got, _ = d.Get(cmd.ID)
	if got.Status != StatusTimeout {
		t.Errorf("status = %s, want TIMEOUT unchanged", got.Status)
	}
}

func TestAckCancelsTimer(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, 30*time.Millisecond, 10)
	ctx := context.Background()

	cmd, _ := d.Dispatch(ctx, "123", map[string]any{wire.ParamShuntVoltage: 75.0})
	d.ResolveAck(ctx, Ack{CommandID: cmd.ID, Status: "success"})

	time.Sleep(60 * time.Millisecond)

	got, _ := d.Get(cmd.ID)
	if got.Status != StatusSuccess {
		t.Errorf("status = %s, want SUCCESS despite elapsed timer", got.Status)
	}
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, time.Minute, 3)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		cmd, err := d.Dispatch(ctx, "123", map[string]any{wire.ParamShuntVoltage: float64(i)})
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		d.ResolveAck(ctx, Ack{CommandID: cmd.ID, Status: "success"})
		ids = append(ids, cmd.ID)
	}

	hist := d.History()
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	if hist[0].ID != ids[1] {
		t.Errorf("oldest retained = %s, want %s", hist[0].ID, ids[1])
	}

	if _, err := d.Get(ids[0]); !errors.Is(err, ErrCommandNotFound) {
		t.Errorf("evicted command lookup error = %v, want ErrCommandNotFound", err)
	}
}

func TestGetPendingCommand(t *testing.T) {
	d := newTestDispatcher(&mockPublisher{}, time.Minute, 10)

	cmd, _ := d.Dispatch(context.Background(), "123", map[string]any{wire.ParamShuntVoltage: 75.0})

	got, err := d.Get(cmd.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want PENDING", got.Status)
	}
}
