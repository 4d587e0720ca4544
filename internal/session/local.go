package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/localstore"
)

// LocalProvider accepts tokens without signature verification and is used
// when no identity project is configured. Development only.
type LocalProvider struct {
	local  *localstore.Store
	log    *zap.Logger
	events chan Event
}

func NewLocalProvider(local *localstore.Store, log *zap.Logger) *LocalProvider {
	if log == nil {
		log = zap.NewNop()
	}
	log.Warn("identity provider not configured, accepting unverified tokens")
	return &LocalProvider{local: local, log: log, events: make(chan Event, 8)}
}

func (p *LocalProvider) Session(ctx context.Context) (Credential, error) {
	var cred Credential
	if p.local == nil || !p.local.GetJSON(localstore.KeyCredential, &cred) {
		return Credential{}, ErrNoSession
	}
	if cred.Expired(time.Now()) {
		_ = p.local.Delete(localstore.KeyCredential)
		return Credential{}, ErrNoSession
	}
	return cred, nil
}

func (p *LocalProvider) Verify(ctx context.Context, token string) (Credential, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Credential{}, err
	}
	expires := time.Now().Add(time.Hour)
	if exp, ok := claims["exp"].(float64); ok && exp > 0 {
		expires = time.Unix(int64(exp), 0)
	}
	uid, _ := claims["sub"].(string)
	cred := Credential{AccessToken: token, UID: uid, ExpiresAt: expires}
	if p.local != nil {
		if err := p.local.SetJSON(localstore.KeyCredential, cred); err != nil {
			p.log.Warn("credential persist failed", zap.Error(err))
		}
	}
	return cred, nil
}

func (p *LocalProvider) Refresh(ctx context.Context) (Credential, error) {
	return p.Session(ctx)
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if p.local == nil {
		return nil
	}
	return p.local.Delete(localstore.KeyCredential)
}

func (p *LocalProvider) Events() <-chan Event { return p.events }
