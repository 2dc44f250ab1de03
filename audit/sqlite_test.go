package audit

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordAndRecent(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Time: base, Operation: "analyze_requirement", Subject: "req_1", Provider: "anthropic", Succeeded: true, Duration: 2 * time.Second},
		{Time: base.Add(time.Minute), Operation: "create_ticket", Subject: "req_1", Provider: "jira", Succeeded: true, Duration: 300 * time.Millisecond},
		{Time: base.Add(2 * time.Minute), Operation: "create_ticket", Subject: "req_2", Provider: "jira", Succeeded: false, Error: "jira api error (400)", Duration: 150 * time.Millisecond},
	}
	for _, ev := range events {
		if err := r.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(Recent()) = %d, want 3", len(got))
	}

	// Newest first.
	if got[0].Subject != "req_2" || got[2].Operation != "analyze_requirement" {
		t.Errorf("Recent() order wrong: %+v", got)
	}
	if got[0].Succeeded {
		t.Error("failed event read back as succeeded")
	}
	if got[0].Error != "jira api error (400)" {
		t.Errorf("Error = %q", got[0].Error)
	}
	if got[1].Duration != 300*time.Millisecond {
		t.Errorf("Duration = %v, want 300ms", got[1].Duration)
	}
	for _, ev := range got {
		if ev.ID == "" {
			t.Error("event stored without generated ID")
		}
	}
}

func TestRecentLimit(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := Event{
			Time:      time.Date(2026, 3, 1, 12, i, 0, 0, time.UTC),
			Operation: "get_ticket",
			Succeeded: true,
		}
		if err := r.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := r.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(Recent(2)) = %d, want 2", len(got))
	}
}

func TestCountByOperation(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	ops := []string{"analyze_requirement", "analyze_requirement", "create_ticket"}
	for _, op := range ops {
		if err := r.Record(ctx, Event{Operation: op, Succeeded: true}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	counts, err := r.CountByOperation(ctx)
	if err != nil {
		t.Fatalf("CountByOperation() error = %v", err)
	}
	if counts["analyze_requirement"] != 2 || counts["create_ticket"] != 1 {
		t.Errorf("CountByOperation() = %v", counts)
	}
}

func TestNewEventID(t *testing.T) {
	a, b := NewEventID(), NewEventID()
	if a == b {
		t.Error("NewEventID() returned duplicate IDs")
	}
	if !strings.HasPrefix(a, "evt_") {
		t.Errorf("NewEventID() = %q, want evt_ prefix", a)
	}
}

func TestNopRecorder(t *testing.T) {
	var r NopRecorder
	if err := r.Record(context.Background(), Event{Operation: "x"}); err != nil {
		t.Errorf("Record() error = %v", err)
	}
	events, err := r.Recent(context.Background(), 10)
	if err != nil {
		t.Errorf("Recent() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Recent() = %v, want empty", events)
	}
}
