package jira

import (
	"testing"
	"time"
)

func TestCreatedTime(t *testing.T) {
	fields := IssueFields{Created: "2026-03-05T10:30:00.000+0000"}

	got, err := fields.CreatedTime()
	if err != nil {
		t.Fatalf("CreatedTime() error = %v", err)
	}
	want := time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CreatedTime() = %v, want %v", got, want)
	}
}

func TestCreatedTimeAbsent(t *testing.T) {
	var fields IssueFields

	got, err := fields.CreatedTime()
	if err != nil {
		t.Fatalf("CreatedTime() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("CreatedTime() = %v, want zero time", got)
	}
}

func TestCreatedTimeMalformed(t *testing.T) {
	fields := IssueFields{Created: "yesterday"}

	if _, err := fields.CreatedTime(); err == nil {
		t.Error("CreatedTime() error = nil, want parse error")
	}
}
