package liveness

import (
	"testing"
	"time"
)

// fixedClock lets tests step time deterministically.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFixedClock() *fixedClock {
	return &fixedClock{t: time.Unix(1_700_000_000, 0)}
}

func withClock(tr *Tracker, c *fixedClock) *Tracker {
	tr.now = c.now
	return tr
}

func TestUnknownDeviceIsDisconnected(t *testing.T) {
	tr := NewTracker(2 * time.Minute)
	if tr.IsConnected("never-seen") {
		t.Error("device with no activity should be disconnected")
	}
}

func TestTimeoutIsFourTimesLoggingInterval(t *testing.T) {
	clock := newFixedClock()
	tr := withClock(NewTracker(2*time.Minute), clock)

	tr.RecordActivity("123", 10*time.Second)

	// Three missed reports are tolerated; the fourth is fatal.
	clock.advance(39 * time.Second)
	if !tr.IsConnected("123") {
		t.Error("device should still be connected at 39s of a 40s timeout")
	}

	clock.advance(2 * time.Second)
	if tr.IsConnected("123") {
		t.Error("device should be disconnected at 41s of a 40s timeout")
	}
}

func TestDefaultTimeoutWithoutInterval(t *testing.T) {
	clock := newFixedClock()
	tr := withClock(NewTracker(2*time.Minute), clock)

	tr.RecordActivity("123", 0)

	clock.advance(119 * time.Second)
	if !tr.IsConnected("123") {
		t.Error("device should be connected within the default timeout")
	}

	clock.advance(2 * time.Second)
	if tr.IsConnected("123") {
		t.Error("device should be disconnected past the default timeout")
	}
}

func TestIntervalUpdateRetainedOnLaterActivity(t *testing.T) {
	clock := newFixedClock()
	tr := withClock(NewTracker(2*time.Minute), clock)

	tr.RecordActivity("123", 10*time.Second)

	// Later activity without an interval keeps the computed timeout.
	clock.advance(5 * time.Second)
	tr.RecordActivity("123", 0)

	rec, ok := tr.Get("123")
	if !ok {
		t.Fatal("record should exist")
	}
	if rec.EffectiveTimeout != 40*time.Second {
		t.Errorf("effective timeout = %v, want 40s retained", rec.EffectiveTimeout)
	}
}

func TestActivityResetsWindow(t *testing.T) {
	clock := newFixedClock()
	tr := withClock(NewTracker(2*time.Minute), clock)

	tr.RecordActivity("123", 10*time.Second)
	clock.advance(35 * time.Second)
	tr.RecordActivity("123", 0)
	clock.advance(35 * time.Second)

	if !tr.IsConnected("123") {
		t.Error("fresh activity should reset the connectivity window")
	}
}

func TestRecordsNeverDeleted(t *testing.T) {
	clock := newFixedClock()
	tr := withClock(NewTracker(2*time.Minute), clock)

	tr.RecordActivity("123", 10*time.Second)
	clock.advance(time.Hour)

	if tr.IsConnected("123") {
		t.Error("stale device should be disconnected")
	}
	if _, ok := tr.Get("123"); !ok {
		t.Error("stale record should still exist")
	}
}
