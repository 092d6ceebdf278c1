// Package telemetry routes inbound device traffic to the components
// that consume it.
//
// Devices publish telemetry on devices/{id}/data and acknowledgments on
// devices/{id}/commands, the same topic the server publishes settings
// frames to. The router subscribes to both wildcards and fans each
// message out: every inbound device message refreshes the liveness
// tracker, acks resolve pending commands, and reported parameter values
// are decoded and reconciled into the settings cache so the server's
// view converges on what the device actually runs.
//
// Frames whose sender field is "Server" are our own publications echoed
// back by the broker and are skipped.
package telemetry
