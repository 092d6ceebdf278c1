// Package settings maintains the canonical per-device parameter state.
//
// Each known device has exactly one CanonicalSettings map, created lazily
// on first access and seeded from the persistence layer or from built-in
// defaults. Configuration changes arrive as partial deltas; the cache
// merges them field-by-field so it always holds a complete snapshot that
// the command dispatcher can encode as a full settings frame.
//
// The cache owns its entries exclusively. Callers always receive copies,
// and entries are never deleted while the device is known.
//
// Persistence is write-behind: a failed save is logged but does not fail
// the merge, since the in-memory snapshot remains authoritative for frame
// construction.
package settings
