package command

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwatch/cathodic-core/internal/infrastructure/mqtt"
	"github.com/fieldwatch/cathodic-core/internal/settings"
	"github.com/fieldwatch/cathodic-core/internal/wire"
)

// Logger defines the logging interface used by the Dispatcher.
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

// Publisher publishes command frames to the broker. Satisfied by the
// infrastructure MQTT client.
type Publisher interface {
	PublishQoS(topic string, payload []byte) error
}

// SettingsStore is the slice of the settings cache the dispatcher needs.
type SettingsStore interface {
	Get(ctx context.Context, deviceID string) (*settings.DeviceSettings, error)
	ApplyDelta(ctx context.Context, deviceID string, fields map[string]any) (*settings.DeviceSettings, error)
}

// Auditor records command lifecycle events for the audit trail.
// Implementations must not block; errors are logged, never fatal.
type Auditor interface {
	RecordDispatch(ctx context.Context, cmd *Command) error
	RecordResolution(ctx context.Context, cmd *Command) error
}

// Notifier publishes push notifications for command lifecycle events.
type Notifier interface {
	CommandSent(deviceID, commandID string, changedFields []string)
	CommandResolved(deviceID, commandID string, status string)
}

// ResultSink receives command outcomes for time-series recording.
// Satisfied by the InfluxDB client.
type ResultSink interface {
	WriteCommandResult(deviceID string, status string, responseTime time.Duration)
}

// pendingCommand pairs an in-flight command with its ack timer.
type pendingCommand struct {
	cmd   *Command
	timer *time.Timer
}

// Dispatcher builds, publishes, and tracks device settings commands.
//
// Dispatches for the same device are serialized: the read-merge-encode-
// publish sequence runs under a per-device lock so concurrent deltas
// cannot interleave into inconsistent frames. Command bookkeeping
// (pending set, history) is guarded separately by mu.
type Dispatcher struct {
	store      SettingsStore
	publisher  Publisher
	topics     mqtt.Topics
	ackTimeout time.Duration
	auditor    Auditor    // optional
	notifier   Notifier   // optional
	results    ResultSink // optional
	logger     Logger

	mu      sync.Mutex
	pending map[string]*pendingCommand
	history *history

	deviceMu    sync.Mutex
	deviceLocks map[string]*sync.Mutex

	newID func() string // injectable for tests
	now   func() time.Time
}

// NewDispatcher creates a dispatcher. ackTimeout bounds how long a
// command may stay PENDING; historyCapacity bounds the resolved FIFO.
func NewDispatcher(store SettingsStore, publisher Publisher, ackTimeout time.Duration, historyCapacity int) *Dispatcher {
	return &Dispatcher{
		store:       store,
		publisher:   publisher,
		ackTimeout:  ackTimeout,
		logger:      noopLogger{},
		pending:     make(map[string]*pendingCommand),
		history:     newHistory(historyCapacity),
		deviceLocks: make(map[string]*sync.Mutex),
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// SetAuditor attaches an audit trail sink.
func (d *Dispatcher) SetAuditor(a Auditor) {
	d.auditor = a
}

// SetNotifier attaches a push notification sink.
func (d *Dispatcher) SetNotifier(n Notifier) {
	d.notifier = n
}

// SetResultSink attaches a time-series sink for command outcomes.
func (d *Dispatcher) SetResultSink(s ResultSink) {
	d.results = s
}

// Dispatch merges a settings delta into the device's canonical snapshot,
// encodes the complete snapshot as a full settings frame, publishes it,
// and tracks the command as PENDING until acked or timed out.
//
// If the publish fails the merge is rolled back so the cache never
// drifts ahead of what the device was actually sent.
func (d *Dispatcher) Dispatch(ctx context.Context, deviceID string, delta map[string]any) (*Command, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}
	if len(delta) == 0 {
		return nil, ErrEmptyDelta
	}

	devLock := d.lockFor(deviceID)
	devLock.Lock()
	defer devLock.Unlock()

	prev, err := d.store.Get(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("reading settings for %s: %w", deviceID, err)
	}

	merged, err := d.store.ApplyDelta(ctx, deviceID, delta)
	if err != nil {
		return nil, fmt.Errorf("merging delta for %s: %w", deviceID, err)
	}

	params, warnings := wire.EncodeParameters(merged.Fields)
	for _, w := range warnings {
		d.logger.Warn("parameter passed through unencoded",
			"device_id", deviceID, "field", w.Field, "reason", w.Reason)
	}

	cmd := &Command{
		ID:            d.newID(),
		DeviceID:      deviceID,
		Status:        StatusPending,
		ChangedFields: sortedKeys(delta),
		Frame:         params,
		CreatedAt:     d.now().UTC(),
	}

	frame := Frame{
		DeviceID:    deviceID,
		MessageType: MessageTypeSettings,
		Sender:      SenderServer,
		CommandID:   cmd.ID,
		Parameters:  params,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("marshalling frame for %s: %w", deviceID, err)
	}

	topic := d.topics.DeviceCommands(deviceID)
	if err := d.publisher.PublishQoS(topic, payload); err != nil {
		// Roll the cache back to the pre-merge snapshot.
		if _, rbErr := d.store.ApplyDelta(ctx, deviceID, prev.Fields); rbErr != nil {
			d.logger.Error("rollback after failed publish also failed",
				"device_id", deviceID, "error", rbErr)
		}
		return nil, fmt.Errorf("%w: %s", ErrPublishFailed, err)
	}

	d.mu.Lock()
	d.pending[cmd.ID] = &pendingCommand{
		cmd:   cmd,
		timer: time.AfterFunc(d.ackTimeout, func() { d.expire(cmd.ID) }),
	}
	d.mu.Unlock()

	d.logger.Info("command dispatched",
		"device_id", deviceID, "command_id", cmd.ID, "changed", cmd.ChangedFields)

	if d.auditor != nil {
		if err := d.auditor.RecordDispatch(ctx, cmd); err != nil {
			d.logger.Warn("audit record failed", "command_id", cmd.ID, "error", err)
		}
	}
	if d.notifier != nil {
		d.notifier.CommandSent(deviceID, cmd.ID, cmd.ChangedFields)
	}

	return cmd.Copy(), nil
}

// DispatchSnapshot publishes the device's current complete settings as
// a full frame without merging any delta. Used to resend configuration
// to a device, e.g. after it rejoins.
func (d *Dispatcher) DispatchSnapshot(ctx context.Context, deviceID string) (*Command, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}

	devLock := d.lockFor(deviceID)
	devLock.Lock()
	defer devLock.Unlock()

	snapshot, err := d.store.Get(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("reading settings for %s: %w", deviceID, err)
	}

	params, warnings := wire.EncodeParameters(snapshot.Fields)
	for _, w := range warnings {
		d.logger.Warn("parameter passed through unencoded",
			"device_id", deviceID, "field", w.Field, "reason", w.Reason)
	}

	cmd := &Command{
		ID:        d.newID(),
		DeviceID:  deviceID,
		Status:    StatusPending,
		Frame:     params,
		CreatedAt: d.now().UTC(),
	}

	frame := Frame{
		DeviceID:    deviceID,
		MessageType: MessageTypeSettings,
		Sender:      SenderServer,
		CommandID:   cmd.ID,
		Parameters:  params,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("marshalling frame for %s: %w", deviceID, err)
	}

	if err := d.publisher.PublishQoS(d.topics.DeviceCommands(deviceID), payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPublishFailed, err)
	}

	d.mu.Lock()
	d.pending[cmd.ID] = &pendingCommand{
		cmd:   cmd,
		timer: time.AfterFunc(d.ackTimeout, func() { d.expire(cmd.ID) }),
	}
	d.mu.Unlock()

	d.logger.Info("snapshot dispatched", "device_id", deviceID, "command_id", cmd.ID)

	if d.auditor != nil {
		if err := d.auditor.RecordDispatch(ctx, cmd); err != nil {
			d.logger.Warn("audit record failed", "command_id", cmd.ID, "error", err)
		}
	}
	if d.notifier != nil {
		d.notifier.CommandSent(deviceID, cmd.ID, nil)
	}

	return cmd.Copy(), nil
}

// ResolveAck applies a device acknowledgment to its pending command.
// Acks for unknown or already-resolved commands are dropped; terminal
// states are final. Returns true if the ack resolved a command.
func (d *Dispatcher) ResolveAck(ctx context.Context, ack Ack) bool {
	if ack.CommandID == "" {
		return false
	}

	d.mu.Lock()
	p, ok := d.pending[ack.CommandID]
	if !ok {
		d.mu.Unlock()
		d.logger.Debug("ignoring ack for unknown or resolved command",
			"command_id", ack.CommandID, "status", ack.Status)
		return false
	}
	p.timer.Stop()
	delete(d.pending, ack.CommandID)

	cmd := p.cmd
	if strings.EqualFold(ack.Status, "success") {
		cmd.Status = StatusSuccess
	} else {
		cmd.Status = StatusFailed
	}
	cmd.Message = ack.Message
	cmd.Error = ack.Error
	cmd.Response = ack.Response
	resolvedAt := d.now().UTC()
	cmd.ResolvedAt = &resolvedAt
	cmd.ResponseTime = resolvedAt.Sub(cmd.CreatedAt)

	d.history.add(cmd)
	d.mu.Unlock()

	d.logger.Info("command resolved",
		"device_id", cmd.DeviceID, "command_id", cmd.ID, "status", cmd.Status)

	d.afterResolution(ctx, cmd)
	return true
}

// expire times out a command that received no ack. A command that was
// resolved while the timer fired is left untouched.
func (d *Dispatcher) expire(commandID string) {
	d.mu.Lock()
	p, ok := d.pending[commandID]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, commandID)

	cmd := p.cmd
	cmd.Status = StatusTimeout
	resolvedAt := d.now().UTC()
	cmd.ResolvedAt = &resolvedAt

	d.history.add(cmd)
	d.mu.Unlock()

	d.logger.Warn("command timed out",
		"device_id", cmd.DeviceID, "command_id", cmd.ID, "timeout", d.ackTimeout)

	d.afterResolution(context.Background(), cmd)
}

// Get returns a command by ID, pending or resolved.
func (d *Dispatcher) Get(commandID string) (*Command, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[commandID]; ok {
		return p.cmd.Copy(), nil
	}
	if cmd, ok := d.history.get(commandID); ok {
		return cmd.Copy(), nil
	}
	return nil, ErrCommandNotFound
}

// History returns the resolved commands, oldest first.
func (d *Dispatcher) History() []*Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.list()
}

// PendingCount returns the number of in-flight commands.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close stops all pending ack timers. In-flight commands stay PENDING;
// Close is for shutdown, not resolution.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

func (d *Dispatcher) afterResolution(ctx context.Context, cmd *Command) {
	if d.auditor != nil {
		if err := d.auditor.RecordResolution(ctx, cmd); err != nil {
			d.logger.Warn("audit record failed", "command_id", cmd.ID, "error", err)
		}
	}
	if d.notifier != nil {
		d.notifier.CommandResolved(cmd.DeviceID, cmd.ID, string(cmd.Status))
	}
	if d.results != nil {
		responseTime := cmd.ResponseTime
		if cmd.Status == StatusTimeout {
			responseTime = d.ackTimeout
		}
		d.results.WriteCommandResult(cmd.DeviceID, string(cmd.Status), responseTime)
	}
}

// lockFor returns the serialization lock for a device, creating it on
// first use. Locks are never removed; the per-device footprint is one
// mutex.
func (d *Dispatcher) lockFor(deviceID string) *sync.Mutex {
	d.deviceMu.Lock()
	defer d.deviceMu.Unlock()

	lock, ok := d.deviceLocks[deviceID]
	if !ok {
		lock = &sync.Mutex{}
		d.deviceLocks[deviceID] = lock
	}
	return lock
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
