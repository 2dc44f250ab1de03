package jira

import (
	"regexp"
	"time"
)

// DeploymentType represents the type of Jira deployment.
type DeploymentType string

// Deployment types for Jira instances.
const (
	DeploymentCloud      DeploymentType = "Cloud"
	DeploymentServer     DeploymentType = "Server"
	DeploymentDataCenter DeploymentType = "DataCenter"
)

// TimeFormat is the standard Jira timestamp format.
const TimeFormat = "2006-01-02T15:04:05.000-0700"

// APIVersion represents the Jira REST API version.
type APIVersion string

// API versions supported by the Jira REST API.
const (
	APIVersionAuto APIVersion = "auto"
	APIVersionV2   APIVersion = "v2"
	APIVersionV3   APIVersion = "v3"
)

// User represents a Jira user, as returned by /myself.
type User struct {
	AccountID    string `json:"accountId,omitempty"`    // Cloud (GDPR-compliant)
	Name         string `json:"name,omitempty"`         // Server (username)
	Key          string `json:"key,omitempty"`          // Server (user key)
	EmailAddress string `json:"emailAddress,omitempty"` // May require scope
	DisplayName  string `json:"displayName"`
	Active       bool   `json:"active"`
	TimeZone     string `json:"timeZone,omitempty"`
	Self         string `json:"self,omitempty"`
}

// GetID returns the user identifier (accountId for Cloud, name for Server).
func (u *User) GetID() string {
	if u.AccountID != "" {
		return u.AccountID
	}
	return u.Name
}

// IssueType represents an issue type in Jira.
type IssueType struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Subtask bool   `json:"subtask,omitempty"`
}

// Status represents an issue status.
type Status struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Project identifies the project an issue belongs to.
type Project struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

// IssueFields holds the fields of an issue the client reads and writes.
// Description is `any` because Cloud (v3) returns ADF documents while
// Server (v2) returns plain strings.
type IssueFields struct {
	Summary     string     `json:"summary,omitempty"`
	Description any        `json:"description,omitempty"`
	IssueType   *IssueType `json:"issuetype,omitempty"`
	Project     *Project   `json:"project,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Assignee    *User      `json:"assignee,omitempty"`
	Reporter    *User      `json:"reporter,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	Created     string     `json:"created,omitempty"`
	Updated     string     `json:"updated,omitempty"`
}

// CreatedTime parses the Created timestamp. Returns the zero time when the
// field is absent or not in Jira's timestamp format.
func (f *IssueFields) CreatedTime() (time.Time, error) {
	if f.Created == "" {
		return time.Time{}, nil
	}
	return time.Parse(TimeFormat, f.Created)
}

// Issue represents a Jira issue.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self,omitempty"`
	Fields IssueFields `json:"fields"`
}

// Transition represents a workflow transition available on an issue.
type Transition struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	To   *Status `json:"to,omitempty"`
}

// TransitionsResponse is the response from /issue/{key}/transitions.
type TransitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// TransitionRef identifies a transition in a transition request.
type TransitionRef struct {
	ID string `json:"id"`
}

// TransitionRequest executes a workflow transition.
type TransitionRequest struct {
	Transition TransitionRef `json:"transition"`
}

// CreateIssueRequest creates a new issue.
type CreateIssueRequest struct {
	Fields map[string]any `json:"fields"`
}

// CreateIssueResponse is the response from creating an issue.
type CreateIssueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// Comment represents an issue comment. Body is `any` for the same
// v2-string / v3-ADF reason as IssueFields.Description.
type Comment struct {
	ID      string `json:"id"`
	Body    any    `json:"body"`
	Author  *User  `json:"author,omitempty"`
	Created string `json:"created,omitempty"`
	Updated string `json:"updated,omitempty"`
}

// AddCommentRequest adds a comment to an issue.
type AddCommentRequest struct {
	Body any `json:"body"`
}

// issueKeyPattern matches standard Jira issue keys like "PROJ-123".
var issueKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-[0-9]+$`)

// ValidateIssueKey reports whether key looks like a valid Jira issue key.
func ValidateIssueKey(key string) bool {
	return issueKeyPattern.MatchString(key)
}
