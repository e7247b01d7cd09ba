// Package pubsub publishes draft events for out-of-process consumers
// (overlays, loggers, companion bots). Publishing is best-effort: failures
// are logged and never surface to the draft flow.
package pubsub

// Event types published by the draft service.
const (
	EventPickRecorded     = "pick_recorded"
	EventPickDeleted      = "pick_deleted"
	EventInflationUpdated = "inflation_updated"
	EventDraftReset       = "draft_reset"
)

// Event is a draft occurrence fanned out to subscribers.
type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Publisher fans events out to interested consumers.
type Publisher interface {
	Publish(Event)
	Close()
}

// Noop is a Publisher that discards everything. Used when no broker is
// configured.
type Noop struct{}

func (Noop) Publish(Event) {}
func (Noop) Close()        {}
