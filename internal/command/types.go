package command

import "time"

// Status is the lifecycle state of a dispatched command.
type Status string

const (
	// StatusPending means the frame was published and no ack has arrived.
	StatusPending Status = "PENDING"

	// StatusSuccess means the device acknowledged the frame as applied.
	StatusSuccess Status = "SUCCESS"

	// StatusFailed means the device acknowledged the frame as rejected.
	StatusFailed Status = "FAILED"

	// StatusTimeout means no ack arrived within the ack timeout.
	StatusTimeout Status = "TIMEOUT"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusTimeout
}

// Command records one dispatched settings frame and its outcome.
// ResponseTime is set only on the ack path; timed-out commands keep zero.
type Command struct {
	ID            string         `json:"id"`
	DeviceID      string         `json:"device_id"`
	Status        Status         `json:"status"`
	ChangedFields []string       `json:"changed_fields"`
	Frame         map[string]any `json:"frame"`
	Message       string         `json:"message,omitempty"`
	Error         string         `json:"error,omitempty"`
	Response      any            `json:"response,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	ResponseTime  time.Duration  `json:"response_time,omitempty"`
}

// Copy returns an independent shallow copy of the command suitable for
// returning to callers.
func (c *Command) Copy() *Command {
	if c == nil {
		return nil
	}
	clone := *c
	if c.ChangedFields != nil {
		clone.ChangedFields = append([]string(nil), c.ChangedFields...)
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		clone.ResolvedAt = &t
	}
	return &clone
}

// Ack is a device acknowledgment message for a dispatched command.
type Ack struct {
	CommandID string `json:"CommandId"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Response  any    `json:"response,omitempty"`
}

// Frame is the device-facing settings message published on the command
// topic. Field names match the firmware's JSON contract exactly.
type Frame struct {
	DeviceID    string         `json:"Device ID"`
	MessageType string         `json:"Message Type"`
	Sender      string         `json:"sender"`
	CommandID   string         `json:"CommandId"`
	Parameters  map[string]any `json:"Parameters"`
}

// Frame constants for the device JSON contract.
const (
	MessageTypeSettings = "settings"
	SenderServer        = "Server"
)
