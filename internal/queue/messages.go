package queue

import (
	"time"

	"github.com/google/uuid"
)

// ActivityKind discriminates activity messages on the shared topic.
type ActivityKind string

const (
	ActivityControl  ActivityKind = "call_control"
	ActivityCallback ActivityKind = "callback_outcome"
)

// ControlMessage records one call-control action issued by the voice sequencer.
type ControlMessage struct {
	Kind       ActivityKind `json:"kind"`
	RunID      uuid.UUID    `json:"run_id"`
	CallID     string       `json:"call_id,omitempty"`
	Action     string       `json:"action"`
	CallState  string       `json:"call_state,omitempty"`
	Error      string       `json:"error,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// CallbackMessage records the terminal outcome of a callback booking.
type CallbackMessage struct {
	Kind        ActivityKind `json:"kind"`
	RunID       uuid.UUID    `json:"run_id"`
	ServiceName string       `json:"service_name"`
	CallbackID  string       `json:"callback_id,omitempty"`
	StatusCode  int          `json:"status_code"`
	Error       string       `json:"error,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}
