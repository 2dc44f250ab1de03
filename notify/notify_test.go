package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	reqhttp "github.com/randalmurphal/reqflow/http"
)

func testEvent() Event {
	return Event{
		Type:          EventTicketCreated,
		RequirementID: "req_1",
		TicketKey:     "PROJ-42",
		Message:       "created PROJ-42: Add SSO login",
		Severity:      SeverityInfo,
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Metadata:      map[string]any{"project": "PROJ"},
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	n := NewLogNotifier(logger)
	if err := n.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "created PROJ-42") {
		t.Errorf("log output missing message: %s", out)
	}
	if !strings.Contains(out, "ticket_key=PROJ-42") {
		t.Errorf("log output missing ticket key: %s", out)
	}
}

func TestLogNotifierSeverityLevels(t *testing.T) {
	tests := []struct {
		severity  string
		wantLevel string
	}{
		{SeverityInfo, "level=INFO"},
		{SeverityWarning, "level=WARN"},
		{SeverityError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			var buf bytes.Buffer
			n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

			ev := testEvent()
			ev.Severity = tt.severity
			if err := n.Notify(context.Background(), ev); err != nil {
				t.Fatalf("Notify() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.wantLevel) {
				t.Errorf("output = %s, want %s", buf.String(), tt.wantLevel)
			}
		})
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got Event
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Auth")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, map[string]string{"X-Auth": "token"})
	if err := n.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if got.Type != EventTicketCreated || got.TicketKey != "PROJ-42" {
		t.Errorf("delivered event = %+v", got)
	}
	if gotHeader != "token" {
		t.Errorf("X-Auth = %q, want token", gotHeader)
	}
}

func TestWebhookNotifierServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, nil)
	err := n.Notify(context.Background(), testEvent())
	if err == nil {
		t.Fatal("Notify() = nil, want error on 502")
	}

	var apiErr *reqhttp.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *reqhttp.APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Service != "webhook" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !reqhttp.IsRetryable(err) {
		t.Error("502 delivery failure should be retryable")
	}
}

func TestSlackNotifierServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL)
	err := n.Notify(context.Background(), testEvent())

	var apiErr *reqhttp.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *reqhttp.APIError", err)
	}
	if apiErr.Service != "slack" || !reqhttp.IsForbidden(err) {
		t.Errorf("APIError = %+v, want forbidden slack error", apiErr)
	}
}

func TestSlackNotifier(t *testing.T) {
	var payload slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL,
		WithSlackChannel("#intake"),
		WithSlackUsername("intake-bot"),
	)
	if err := n.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if payload.Channel != "#intake" {
		t.Errorf("Channel = %q, want #intake", payload.Channel)
	}
	if payload.Username != "intake-bot" {
		t.Errorf("Username = %q, want intake-bot", payload.Username)
	}
	if len(payload.Attachments) != 1 {
		t.Fatalf("len(Attachments) = %d, want 1", len(payload.Attachments))
	}
	att := payload.Attachments[0]
	if att.Color != "good" {
		t.Errorf("Color = %q, want good for info severity", att.Color)
	}
	if !strings.Contains(att.Footer, "PROJ-42") {
		t.Errorf("Footer = %q, want ticket key", att.Footer)
	}
	if len(att.Fields) != 1 || att.Fields[0].Title != "project" {
		t.Errorf("Fields = %+v, want metadata fields", att.Fields)
	}
}

func TestSlackSeverityColors(t *testing.T) {
	tests := []struct {
		severity string
		want     string
	}{
		{SeverityInfo, "good"},
		{SeverityWarning, "warning"},
		{SeverityError, "danger"},
	}
	for _, tt := range tests {
		if got := colorForSeverity(tt.severity); got != tt.want {
			t.Errorf("colorForSeverity(%q) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestMultiNotifier(t *testing.T) {
	var delivered []string
	ok := notifierFunc(func(ctx context.Context, ev Event) error {
		delivered = append(delivered, "ok")
		return nil
	})
	failing := notifierFunc(func(ctx context.Context, ev Event) error {
		delivered = append(delivered, "failing")
		return errors.New("down")
	})

	n := NewMultiNotifier(failing, ok)
	n.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	err := n.Notify(context.Background(), testEvent())
	if err == nil {
		t.Error("Notify() = nil, want last delivery error")
	}
	if len(delivered) != 2 {
		t.Errorf("delivered to %d notifiers, want 2 (failure must not stop fan-out)", len(delivered))
	}
}

func TestNopNotifier(t *testing.T) {
	var n Nop
	if err := n.Notify(context.Background(), testEvent()); err != nil {
		t.Errorf("Notify() error = %v", err)
	}
}

// notifierFunc adapts a function to the Notifier interface.
type notifierFunc func(ctx context.Context, event Event) error

func (f notifierFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}
