package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records auth-protocol events.
//
// IMPORTANT:
// - Audit is internal-only. Records never reach browser clients.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Record logs one protocol step. It is safe to call on a nil service, so
// wiring audit in remains optional.
func (s *Service) Record(ctx context.Context, typ EventType, success bool, ip, message string) error {
	if s == nil {
		return nil
	}
	return s.Append(ctx, Event{
		Type:      typ,
		Success:   success,
		IPAddress: ip,
		Message:   message,
	})
}
