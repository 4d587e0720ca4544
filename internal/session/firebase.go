package session

import (
	"context"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/localstore"
)

// tokenVerifier abstracts the Firebase Admin SDK client for testability.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseProvider verifies Google sign-in tokens with the Firebase Admin
// SDK and persists the active credential in the local store so a restarted
// client can restore its session.
type FirebaseProvider struct {
	verifier tokenVerifier
	local    *localstore.Store
	log      *zap.Logger
	events   chan Event
}

// NewFirebaseProvider builds a provider for the given project.
func NewFirebaseProvider(ctx context.Context, projectID string, local *localstore.Store, log *zap.Logger) (*FirebaseProvider, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return newFirebaseProvider(client, local, log), nil
}

func newFirebaseProvider(verifier tokenVerifier, local *localstore.Store, log *zap.Logger) *FirebaseProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &FirebaseProvider{
		verifier: verifier,
		local:    local,
		log:      log,
		events:   make(chan Event, 8),
	}
}

// Session restores and re-verifies the persisted credential.
func (p *FirebaseProvider) Session(ctx context.Context) (Credential, error) {
	var cred Credential
	if p.local == nil || !p.local.GetJSON(localstore.KeyCredential, &cred) {
		return Credential{}, ErrNoSession
	}
	if cred.AccessToken == "" || cred.Expired(time.Now()) {
		return Credential{}, ErrNoSession
	}
	return p.Verify(ctx, cred.AccessToken)
}

// Verify validates the token with Firebase and persists it as the active
// credential.
func (p *FirebaseProvider) Verify(ctx context.Context, token string) (Credential, error) {
	verified, err := p.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return Credential{}, ErrNoSession
	}
	cred := Credential{
		AccessToken: token,
		UID:         verified.UID,
		ExpiresAt:   time.Unix(verified.Expires, 0),
	}
	if p.local != nil {
		if err := p.local.SetJSON(localstore.KeyCredential, cred); err != nil {
			p.log.Warn("credential persist failed", zap.Error(err))
		}
	}
	return cred, nil
}

// Refresh re-verifies the persisted credential.
func (p *FirebaseProvider) Refresh(ctx context.Context) (Credential, error) {
	return p.Session(ctx)
}

// SignOut revokes the provider session and drops the persisted credential.
func (p *FirebaseProvider) SignOut(ctx context.Context) error {
	var cred Credential
	if p.local != nil {
		p.local.GetJSON(localstore.KeyCredential, &cred)
		if err := p.local.Delete(localstore.KeyCredential); err != nil {
			p.log.Warn("credential delete failed", zap.Error(err))
		}
	}
	if cred.UID == "" {
		return nil
	}
	return p.verifier.RevokeRefreshTokens(ctx, cred.UID)
}

// Events delivers renewal and sign-out notifications pushed via PushEvent.
func (p *FirebaseProvider) Events() <-chan Event { return p.events }

// PushEvent feeds a provider event, e.g. from the sign-in callback handler
// when the browser widget reports a renewed token. Dropped when the buffer
// is full; events are advisory.
func (p *FirebaseProvider) PushEvent(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.log.Warn("provider event dropped", zap.Int("kind", int(ev.Kind)))
	}
}
