package reqflow

import (
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Input validation errors.
var (
	ErrTitleRequired = errors.New("requirement title is required")
	ErrBodyRequired  = errors.New("requirement body is required")
)

// Requirement is a raw requirement as submitted for analysis.
type Requirement struct {
	// ID uniquely identifies the requirement. NewRequirement fills it.
	ID string `json:"id"`

	// Title is a one-line summary.
	Title string `json:"title"`

	// Body is the full requirement text.
	Body string `json:"body"`

	// Context is optional background material passed through to the LLM.
	Context string `json:"context,omitempty"`
}

// NewRequirement creates a Requirement with a generated ID.
func NewRequirement(title, body string) Requirement {
	return Requirement{
		ID:    newID("req"),
		Title: title,
		Body:  body,
	}
}

// Validate checks the requirement is complete enough to analyze.
func (r Requirement) Validate() error {
	if r.Title == "" {
		return ErrTitleRequired
	}
	if r.Body == "" {
		return ErrBodyRequired
	}
	return nil
}

// Analysis is the LLM's structured assessment of a requirement.
type Analysis struct {
	ID            string    `json:"id"`
	RequirementID string    `json:"requirement_id"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	Content       string    `json:"content"`
	TokensIn      int       `json:"tokens_in,omitempty"`
	TokensOut     int       `json:"tokens_out,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Recommendation is the LLM's suggested implementation approach.
type Recommendation struct {
	ID            string    `json:"id"`
	RequirementID string    `json:"requirement_id"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// TicketInput describes the Jira issue to create for a requirement.
type TicketInput struct {
	// Project is the Jira project key.
	Project string

	// Summary is the issue summary line.
	Summary string

	// Description is the issue description. Plain text; the client sends
	// it in the form the negotiated API version accepts.
	Description string

	// IssueType defaults to "Task" when empty.
	IssueType string

	// RequirementID links the ticket back to the analyzed requirement.
	RequirementID string
}

func newID(prefix string) string {
	id, err := gonanoid.New()
	if err != nil {
		return prefix + "_" + time.Now().UTC().Format("20060102150405.000000000")
	}
	return prefix + "_" + id
}
