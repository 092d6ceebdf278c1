package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldwatch/cathodic-core/internal/wire"
)

// Logger defines the logging interface used by the Cache.
// This allows different logging implementations to be used.
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

// Cache is the authoritative in-memory store of canonical device
// settings. It merges partial deltas into always-complete snapshots and
// persists each merged result write-behind through the Repository.
//
// All public methods are thread-safe.
type Cache struct {
	repo   Repository // nil disables persistence
	cache  map[string]*DeviceSettings
	mu     sync.RWMutex
	logger Logger
}

// NewCache creates a settings cache. A nil repository is allowed; the
// cache then runs purely in memory.
func NewCache(repo Repository) *Cache {
	return &Cache{
		repo:   repo,
		cache:  make(map[string]*DeviceSettings),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the cache.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// RefreshCache preloads all persisted settings into memory. Called on
// application startup.
func (c *Cache) RefreshCache(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}

	all, err := c.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted settings: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*DeviceSettings, len(all))
	for i := range all {
		s := all[i]
		c.cache[s.DeviceID] = s.DeepCopy()
	}

	c.logger.Info("settings cache refreshed", "count", len(all))
	return nil
}

// Get returns the complete canonical settings for a device, lazily
// seeding from the repository or from built-in defaults on first access.
// The returned snapshot is a copy; callers can safely modify it.
func (c *Cache) Get(ctx context.Context, deviceID string) (*DeviceSettings, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.getOrSeedLocked(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.DeepCopy(), nil
}

// ApplyDelta merges the given field/value pairs into the device's
// canonical settings, last-write-wins per field. When the delta sets
// Electrode without an explicit Reference Fail, the electrode's fixed
// reference-fail default is applied automatically.
//
// The merged snapshot is persisted write-behind: a save failure is
// logged but does not fail the merge. Returns a copy of the merged
// snapshot.
func (c *Cache) ApplyDelta(ctx context.Context, deviceID string, fields map[string]any) (*DeviceSettings, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}
	if len(fields) == 0 {
		return nil, ErrEmptyDelta
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.getOrSeedLocked(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	for name, value := range fields {
		s.Fields[name] = canonicalize(name, value)
	}

	// Electrode change without an explicit reference fail in the same
	// delta picks up the electrode's fixed default.
	if electrode, changed := fields[wire.ParamElectrode]; changed {
		if _, explicit := fields[wire.ParamReferenceFail]; !explicit {
			if code, err := wire.EncodeElectrode(electrode); err == nil {
				s.Fields[wire.ParamReferenceFail] = wire.ReferenceFailDefault(code)
			}
		}
	}

	s.UpdatedAt = time.Now().UTC()

	if c.repo != nil {
		if err := c.repo.Save(ctx, s); err != nil {
			c.logger.Warn("settings persistence failed, in-memory snapshot remains authoritative",
				"device_id", deviceID, "error", err)
		}
	}

	c.logger.Debug("settings delta applied", "device_id", deviceID, "fields", len(fields))
	return s.DeepCopy(), nil
}

// Devices returns the IDs of all devices currently held in the cache.
func (c *Cache) Devices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.cache))
	for id := range c.cache {
		ids = append(ids, id)
	}
	return ids
}

// getOrSeedLocked returns the live cache entry for a device, seeding it
// from the repository or built-in defaults if absent. Caller must hold
// c.mu.
func (c *Cache) getOrSeedLocked(ctx context.Context, deviceID string) (*DeviceSettings, error) {
	if s, ok := c.cache[deviceID]; ok {
		return s, nil
	}

	if c.repo != nil {
		persisted, err := c.repo.Get(ctx, deviceID)
		switch {
		case err == nil:
			c.cache[deviceID] = persisted
			return persisted, nil
		case errors.Is(err, ErrNotFound):
			// Fall through to defaults.
		default:
			return nil, fmt.Errorf("seeding settings for %s: %w", deviceID, err)
		}
	}

	s := Defaults(deviceID)
	c.cache[deviceID] = s
	c.logger.Info("settings seeded from defaults", "device_id", deviceID)
	return s, nil
}

// canonicalize converts a delta value into its stored canonical form.
// Enum names become codes and durations collapse to one representation,
// so snapshots stay uniform across input styles. Values that fail to
// convert are stored as given; the codec surfaces them at encode time.
func canonicalize(name string, value any) any {
	switch name {
	case wire.ParamElectrode:
		if code, err := wire.EncodeElectrode(value); err == nil {
			return code
		}
	case wire.ParamEvent:
		if code, err := wire.EncodeEvent(value); err == nil {
			return code
		}
	case wire.ParamInterruptOnTime, wire.ParamInterruptOffTime, wire.ParamLoggingInterval:
		if secs, _, err := wire.NormalizeDuration(value); err == nil {
			return secs
		}
	case wire.ParamDepolInterval:
		if _, hms, err := wire.NormalizeDuration(value); err == nil {
			return hms
		}
	}
	return value
}
