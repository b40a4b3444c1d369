package audit

import (
	"context"
	"testing"
	"time"
)

func TestAppend_FillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo)
	s.clock = func() time.Time { return time.Unix(1700000000, 0) }

	if err := s.Append(context.Background(), Event{Type: EventTypeRefresh, Success: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events := repo.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !e.CreatedAt.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("unexpected created_at: %v", e.CreatedAt)
	}
}

func TestAppend_RejectsMissingType(t *testing.T) {
	s := NewService(NewMemoryRepo())
	if err := s.Append(context.Background(), Event{}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestMemoryRepo_ByType(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo)
	ctx := context.Background()

	if err := s.Record(ctx, EventTypeRefresh, true, "10.0.0.1", ""); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record(ctx, EventTypeSignOut, true, "10.0.0.1", ""); err != nil {
		t.Fatalf("record: %v", err)
	}

	refreshes := repo.ByType(EventTypeRefresh)
	if len(refreshes) != 1 || refreshes[0].Type != EventTypeRefresh {
		t.Fatalf("unexpected refresh events: %+v", refreshes)
	}
	if got := repo.ByType(EventTypeCodeExchange); len(got) != 0 {
		t.Fatalf("expected no exchange events, got %+v", got)
	}
}

func TestRecord_NilServiceIsNoop(t *testing.T) {
	var s *Service
	if err := s.Record(context.Background(), EventTypeSignIn, true, "", ""); err != nil {
		t.Fatalf("nil service must be a no-op, got %v", err)
	}
}
