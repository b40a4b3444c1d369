package audit

import "time"

// Event is an immutable, append-only record of an auth-protocol action.
//
// Invariants:
// - Events are never updated or deleted.
// - Events carry no token or verifier values, only outcomes.
// - Capture is best-effort; auth flows must never block on audit failures.
//
// Storage recommendation (Postgres):
// - Table auth_events with an INSERT-only policy.
// - Optional: partition by time for retention.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the protocol step being recorded.
	Type EventType `json:"type" db:"type"`

	// Success records the protocol outcome, not an HTTP status.
	Success bool `json:"success" db:"success"`

	// IPAddress should capture the original client IP when available.
	// Prefer X-Forwarded-For processing at the edge; store the resolved
	// client IP here.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeSignIn       EventType = "sign_in"
	EventTypeSignOut      EventType = "sign_out"
	EventTypeRefresh      EventType = "token_refresh"
	EventTypeCodeExchange EventType = "code_exchange"
)
