package liveness

import (
	"sync"
	"time"
)

// timeoutMultiplier scales the reported logging interval into an
// effective timeout. Four intervals tolerate three missed reports.
const timeoutMultiplier = 4

// Record holds the liveness state for one device.
type Record struct {
	DeviceID         string        `json:"device_id"`
	LastActivityAt   time.Time     `json:"last_activity_at"`
	LoggingInterval  time.Duration `json:"logging_interval"`
	EffectiveTimeout time.Duration `json:"effective_timeout"`
}

// Tracker maintains per-device liveness records. Records are never
// deleted; a stale record simply reports disconnected.
//
// All public methods are thread-safe.
type Tracker struct {
	defaultTimeout time.Duration
	records        map[string]*Record
	mu             sync.RWMutex
	now            func() time.Time // injectable for tests
}

// NewTracker creates a tracker. defaultTimeout applies to devices that
// have never reported a logging interval.
func NewTracker(defaultTimeout time.Duration) *Tracker {
	return &Tracker{
		defaultTimeout: defaultTimeout,
		records:        make(map[string]*Record),
		now:            time.Now,
	}
}

// RecordActivity marks a device as active now. A positive logging
// interval recomputes the effective timeout as four times the interval;
// zero or negative leaves the previous timeout in place.
func (t *Tracker) RecordActivity(deviceID string, loggingInterval time.Duration) {
	if deviceID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[deviceID]
	if !ok {
		rec = &Record{
			DeviceID:         deviceID,
			EffectiveTimeout: t.defaultTimeout,
		}
		t.records[deviceID] = rec
	}

	rec.LastActivityAt = t.now()
	if loggingInterval > 0 {
		rec.LoggingInterval = loggingInterval
		rec.EffectiveTimeout = timeoutMultiplier * loggingInterval
	}
}

// IsConnected reports whether a device's last activity falls within its
// effective timeout. Unknown devices are disconnected.
func (t *Tracker) IsConnected(deviceID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[deviceID]
	if !ok {
		return false
	}
	return t.now().Sub(rec.LastActivityAt) < rec.EffectiveTimeout
}

// Get returns a copy of a device's liveness record, or false if the
// device has never been seen.
func (t *Tracker) Get(deviceID string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[deviceID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}
