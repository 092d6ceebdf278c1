// Package liveness tracks device connectivity from message arrival times.
//
// Field devices have no persistent transport session; the only signal
// that one is alive is that it recently published telemetry or an
// acknowledgment. The tracker records the last activity time per device
// and derives an effective timeout of four times the device's reported
// logging interval, tolerating three missed reports before a device is
// considered disconnected.
//
// Connectivity is therefore a heuristic, not a transport guarantee: a
// device that just went dark still reads as connected until its timeout
// elapses.
package liveness
