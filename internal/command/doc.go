// Package command dispatches settings frames to devices and tracks their
// acknowledgments.
//
// Every configuration change, however small the delta, is sent as a full
// settings frame built from the device's complete canonical snapshot. The
// dispatcher stamps each frame with a unique command ID, publishes it on
// the device's command topic, and holds the command PENDING until the
// device acknowledges or the ack timer expires.
//
// State machine per command: PENDING, then exactly one of SUCCESS,
// FAILED, or TIMEOUT. Terminal states are final; a late acknowledgment
// for an already-resolved command is logged and dropped.
//
// Dispatches for the same device are serialized under a per-device lock
// so that merge, encode, and publish act on a consistent snapshot.
// Resolved commands move to a bounded FIFO history, oldest evicted first.
package command
