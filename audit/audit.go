// Package audit records what the service did, when, and whether it worked.
//
// Recorders are constructed explicitly and passed to their consumers; there
// is deliberately no package-level default instance, so tests substitute a
// fake by injection rather than by patching global state.
package audit

import (
	"context"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Event is one audited operation.
type Event struct {
	// ID uniquely identifies the event. NewEventID fills it when empty.
	ID string `db:"id" json:"id"`

	// Time is when the operation completed.
	Time time.Time `db:"time" json:"time"`

	// Operation names the logical operation (e.g. "analyze_requirement").
	Operation string `db:"operation" json:"operation"`

	// Actor identifies who triggered the operation, if known.
	Actor string `db:"actor" json:"actor,omitempty"`

	// Subject is the primary object of the operation (issue key,
	// requirement ID).
	Subject string `db:"subject" json:"subject,omitempty"`

	// Provider names an external backend involved (LLM provider, "jira").
	Provider string `db:"provider" json:"provider,omitempty"`

	// Succeeded reports the outcome.
	Succeeded bool `db:"succeeded" json:"succeeded"`

	// Error holds the failure text, empty on success. Credentials must
	// never be written here; callers log error messages, not configs.
	Error string `db:"error" json:"error,omitempty"`

	// Duration is how long the operation took.
	Duration time.Duration `db:"duration" json:"duration"`
}

// Recorder persists audit events.
type Recorder interface {
	// Record stores one event. Implementations must not block the
	// calling operation on anything slower than a local write.
	Record(ctx context.Context, event Event) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// NewEventID generates a unique event ID.
func NewEventID() string {
	id, err := nanoid.New()
	if err != nil {
		// nanoid only fails when the system randomness source does.
		return "evt_" + time.Now().UTC().Format("20060102150405.000000000")
	}
	return "evt_" + id
}

// NopRecorder discards all events. Useful when auditing is disabled and in
// tests that don't assert on audit output.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Event) error { return nil }

// Recent implements Recorder.
func (NopRecorder) Recent(context.Context, int) ([]Event, error) { return nil, nil }
