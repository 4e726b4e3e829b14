package bus

import "time"

// EventKind tags a live channel event.
type EventKind string

const (
	KindAlert           EventKind = "alert"
	KindLocationRequest EventKind = "locationRequest"
	KindNotice          EventKind = "notice" // plain-text frame from the backend
)

// Event is a typed live channel event delivered to subscribers.
type Event struct {
	Kind       EventKind `json:"type"`
	Message    string    `json:"message,omitempty"`
	SessionID  string    `json:"session_id"`
	ReceivedAt time.Time `json:"received_at"`
}
