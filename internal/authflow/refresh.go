package authflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authrelay/internal/backend"
	"authrelay/internal/session"
	"authrelay/internal/tokens"
)

type OutcomeKind int

const (
	// OutcomeUnspecified: no prior session (both auth cookies absent).
	OutcomeUnspecified OutcomeKind = iota
	// OutcomeUnchanged: session present, token still comfortably valid.
	OutcomeUnchanged
	// OutcomeInvalid: inconsistent cookies, undecodable token, or a failed
	// refresh. Caller must clear all auth cookies.
	OutcomeInvalid
	// OutcomeRefreshed: a new pair was minted. Caller must write it.
	OutcomeRefreshed
)

// Outcome is the single resolution every cookie-inspecting path must reach
// before a response is produced.
type Outcome struct {
	Kind OutcomeKind

	// Tokens is set iff Kind is OutcomeRefreshed.
	Tokens *tokens.Pair
}

// Refresh margin bounds: require at least a minute of remaining validity,
// but never demand more than a tenth of the token's lifetime, and never
// less than ten seconds.
const (
	minRefreshMargin = 10 * time.Second
	maxRefreshMargin = 60 * time.Second
)

func refreshMargin(totalLifetime time.Duration) time.Duration {
	m := totalLifetime / 10
	if m < minRefreshMargin {
		return minRefreshMargin
	}
	if m > maxRefreshMargin {
		return maxRefreshMargin
	}
	return m
}

// Scheduler decides whether a session's access token needs refreshing and
// performs the refresh call. Cookie writes are the caller's responsibility
// based on the returned outcome.
type Scheduler struct {
	invoker backend.Invoker
	now     func() time.Time
}

func NewScheduler(invoker backend.Invoker) *Scheduler {
	return &Scheduler{invoker: invoker, now: time.Now}
}

// Evaluate resolves the view's auth cookies to an Outcome with at most one
// network call. A non-nil error marks a backend invariant violation (the
// sign-in action answered with something other than a tokens result); the
// outcome is still usable and is always Invalid in that case.
func (s *Scheduler) Evaluate(ctx context.Context, view *session.View) (Outcome, error) {
	token, hasToken := view.Token()
	refreshToken, hasRefresh := view.RefreshToken()

	switch {
	case !hasToken && !hasRefresh:
		return Outcome{Kind: OutcomeUnspecified}, nil
	case hasToken != hasRefresh:
		// Exactly one cookie present: the pair travels together or not at
		// all. Treat as tampering, not as a partial session.
		return Outcome{Kind: OutcomeInvalid}, nil
	}

	lt, err := tokens.DecodeLifetime(token)
	if err != nil {
		return Outcome{Kind: OutcomeInvalid}, nil
	}

	margin := refreshMargin(lt.Total())
	if lt.ExpiresAt.After(s.now().Add(margin)) {
		return Outcome{Kind: OutcomeUnchanged}, nil
	}

	res, err := s.invoker.Invoke(ctx, backend.ActionSignIn, map[string]any{
		"refreshToken": refreshToken,
	}, backend.CallOptions{})
	if err != nil {
		if errors.Is(err, backend.ErrBadShape) {
			return Outcome{Kind: OutcomeInvalid}, err
		}
		// Transport failure: fail closed, signed out.
		return Outcome{Kind: OutcomeInvalid}, nil
	}
	if res.Kind != backend.KindTokens {
		return Outcome{Kind: OutcomeInvalid}, fmt.Errorf("%w: sign-in refresh produced no tokens result", backend.ErrBadShape)
	}
	if res.Tokens == nil {
		// Backend rejected the refresh token.
		return Outcome{Kind: OutcomeInvalid}, nil
	}
	return Outcome{Kind: OutcomeRefreshed, Tokens: res.Tokens}, nil
}
