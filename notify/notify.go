package notify

import (
	"context"
	"time"
)

// EventType identifies an intake lifecycle event.
type EventType string

// Event type constants.
const (
	EventRequirementAnalyzed EventType = "requirement_analyzed"
	EventAnalysisFailed      EventType = "analysis_failed"
	EventRecommendationDone  EventType = "recommendation_done"
	EventTicketCreated       EventType = "ticket_created"
	EventTicketCreateFailed  EventType = "ticket_create_failed"
)

// Severity constants for events.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes an intake event for notification.
type Event struct {
	Type          EventType      `json:"type"`
	RequirementID string         `json:"requirement_id,omitempty"`
	TicketKey     string         `json:"ticket_key,omitempty"`
	Message       string         `json:"message"`
	Severity      string         `json:"severity"`
	Timestamp     time.Time      `json:"timestamp"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Notifier delivers intake events. Implementations should not block for
// long and should treat delivery failure as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop discards all events.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(ctx context.Context, event Event) error {
	return nil
}
