package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"authrelay/internal/tokens"
)

// Action names the relay is allowed to invoke on the backend.
type Action string

const (
	ActionSignIn  Action = "auth:signIn"
	ActionSignOut Action = "auth:signOut"
)

// ErrBadShape marks a backend response that matches none of the known
// result shapes. Callers treat it as a backend fault, never as a client
// error.
var ErrBadShape = errors.New("backend: unrecognized action result shape")

type ResultKind int

const (
	// KindEmpty is a bodyless success (signOut's usual result).
	KindEmpty ResultKind = iota
	// KindRedirect starts an OAuth/magic-link challenge.
	KindRedirect
	// KindTokens carries a token pair, or explicitly no pair (Tokens nil).
	KindTokens
)

// Result is the discriminated union of backend action outcomes. The shape
// is validated once, at the transport boundary; everything downstream
// switches on Kind.
type Result struct {
	Kind ResultKind

	// Redirect and Verifier are set for KindRedirect.
	Redirect string
	Verifier string

	// Tokens is set for KindTokens; nil means "tokens": null.
	Tokens *tokens.Pair
}

var nullLiteral = []byte("null")

// ParseResult validates a raw action response body into a Result.
func ParseResult(data []byte) (Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullLiteral) {
		return Result{Kind: KindEmpty}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadShape, err)
	}

	if raw, ok := fields["redirect"]; ok {
		var r Result
		r.Kind = KindRedirect
		if err := json.Unmarshal(raw, &r.Redirect); err != nil || r.Redirect == "" {
			return Result{}, fmt.Errorf("%w: bad redirect field", ErrBadShape)
		}
		if raw, ok := fields["verifier"]; ok {
			if err := json.Unmarshal(raw, &r.Verifier); err != nil {
				return Result{}, fmt.Errorf("%w: bad verifier field", ErrBadShape)
			}
		}
		return r, nil
	}

	if raw, ok := fields["tokens"]; ok {
		if bytes.Equal(bytes.TrimSpace(raw), nullLiteral) {
			return Result{Kind: KindTokens}, nil
		}
		var pair tokens.Pair
		if err := json.Unmarshal(raw, &pair); err != nil {
			return Result{}, fmt.Errorf("%w: bad tokens field", ErrBadShape)
		}
		if pair.Token == "" || pair.RefreshToken == "" {
			return Result{}, fmt.Errorf("%w: incomplete token pair", ErrBadShape)
		}
		return Result{Kind: KindTokens, Tokens: &pair}, nil
	}

	return Result{}, ErrBadShape
}
