package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession indicates the identity provider holds no usable session.
var ErrNoSession = errors.New("session: no active provider session")

// Credential is the provider-issued bearer token plus its expiry.
type Credential struct {
	AccessToken string    `json:"accessToken"`
	UID         string    `json:"uid,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired reports whether the credential's lifetime has passed.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// EventKind classifies provider-pushed auth state changes.
type EventKind int

const (
	EventSignedIn EventKind = iota
	EventTokenRefreshed
	EventSignedOut
)

// Event is a provider-pushed auth state change.
type Event struct {
	Kind       EventKind
	Credential Credential
}

// Provider abstracts the third-party identity provider. The interactive
// sign-in widget runs in the browser; the provider's server-side duties are
// restoring, verifying, refreshing and revoking credentials.
type Provider interface {
	// Session restores an existing session, returning ErrNoSession when
	// there is none or the persisted credential no longer verifies.
	Session(ctx context.Context) (Credential, error)
	// Verify validates a token handed over by the sign-in widget.
	Verify(ctx context.Context, token string) (Credential, error)
	// Refresh re-checks the current credential, returning ErrNoSession when
	// the provider session is truly gone.
	Refresh(ctx context.Context) (Credential, error)
	// SignOut revokes the provider session. Best effort.
	SignOut(ctx context.Context) error
	// Events delivers provider-pushed renewals and sign-outs.
	Events() <-chan Event
}
