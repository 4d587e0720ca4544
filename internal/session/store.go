// Package session owns the authenticated identity: it restores the provider
// session at startup under a hard time ceiling, exchanges provider tokens
// for the backend's view of the user, and tears everything down on logout,
// cascading into the cart via the sync bus.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"sribalafashion.in/web/internal/api"
	"sribalafashion.in/web/internal/localstore"
	"sribalafashion.in/web/internal/syncbus"
)

// State is the lifecycle phase of the identity store.
type State int

const (
	StateInitializing State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// DefaultInitTimeout bounds how long Init may block on a slow provider. The
// UI must never wait longer than this for the session restore.
const DefaultInitTimeout = 3 * time.Second

// Exchanger trades a provider token for the backend identity.
type Exchanger interface {
	ExchangeIdentity(ctx context.Context, accessToken, fullName string) (api.Identity, error)
}

// Store is the session/identity store.
type Store struct {
	provider    Provider
	exchanger   Exchanger
	local       *localstore.Store
	bus         *syncbus.Bus
	log         *zap.Logger
	initTimeout time.Duration

	mu       sync.RWMutex
	state    State
	identity api.Identity
	cred     Credential

	syncMu  sync.Mutex
	syncing bool

	changeMu sync.Mutex
	onChange []func(State)
}

// New builds the store in Initializing state. Call Init to restore the
// provider session.
func New(provider Provider, exchanger Exchanger, local *localstore.Store, bus *syncbus.Bus, log *zap.Logger, initTimeout time.Duration) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if initTimeout <= 0 {
		initTimeout = DefaultInitTimeout
	}
	return &Store{
		provider:    provider,
		exchanger:   exchanger,
		local:       local,
		bus:         bus,
		log:         log,
		initTimeout: initTimeout,
		state:       StateInitializing,
	}
}

// OnChange registers a callback fired after every state transition.
func (s *Store) OnChange(fn func(State)) {
	s.changeMu.Lock()
	s.onChange = append(s.onChange, fn)
	s.changeMu.Unlock()
}

// Init queries the provider for an existing session and transitions out of
// Initializing no later than the configured ceiling, regardless of provider
// responsiveness. A restore that completes late is still applied when it
// lands. Init also starts the provider event loop.
func (s *Store) Init(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		cred, err := s.provider.Session(ctx)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				s.log.Warn("session restore failed", zap.Error(err))
			}
			s.forceAnonymousFromInit()
			return
		}
		s.acceptCredential(ctx, cred)
	}()

	select {
	case <-done:
	case <-time.After(s.initTimeout):
		// Hard ceiling: stop blocking the caller. The goroutine's outcome
		// still applies whenever the provider answers.
		s.forceAnonymousFromInit()
	case <-ctx.Done():
		s.forceAnonymousFromInit()
	}

	go s.eventLoop(ctx)
}

func (s *Store) eventLoop(ctx context.Context) {
	events := s.provider.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case EventSignedIn, EventTokenRefreshed:
				if ev.Credential.AccessToken != "" {
					s.acceptCredential(ctx, ev.Credential)
				}
			case EventSignedOut:
				s.forceAnonymous()
			}
		}
	}
}

// acceptCredential transitions to Authenticated using locally decodable
// claims right away, then syncs with the backend in the background. The
// backend exchange failing never reverts the Authenticated transition; the
// user stays signed in with the default role.
func (s *Store) acceptCredential(ctx context.Context, cred Credential) {
	s.mu.Lock()
	s.cred = cred
	s.state = StateAuthenticated
	s.identity = identityFromClaims(cred.AccessToken)
	s.mu.Unlock()
	s.fireChange(StateAuthenticated)

	go s.exchange(ctx, cred)
}

// exchange runs the backend identity sync. The guard admits one in-flight
// exchange; a credential event arriving mid-exchange is dropped rather than
// queued; the most recent successful exchange wins.
func (s *Store) exchange(ctx context.Context, cred Credential) {
	s.syncMu.Lock()
	if s.syncing {
		s.syncMu.Unlock()
		return
	}
	s.syncing = true
	s.syncMu.Unlock()
	defer func() {
		s.syncMu.Lock()
		s.syncing = false
		s.syncMu.Unlock()
	}()

	fullName := fullNameFromClaims(cred.AccessToken)
	identity, err := s.exchanger.ExchangeIdentity(ctx, cred.AccessToken, fullName)
	if err != nil {
		s.log.Warn("identity exchange failed, keeping claims identity", zap.Error(err))
		return
	}
	s.mu.Lock()
	if s.state == StateAuthenticated && s.cred.AccessToken == cred.AccessToken {
		s.identity = identity
	}
	s.mu.Unlock()
	s.fireChange(StateAuthenticated)
}

// Login validates a token delivered by the sign-in widget. It reports
// success or a user-facing failure message; it never panics or throws.
func (s *Store) Login(ctx context.Context, token string) (bool, string) {
	cred, err := s.provider.Verify(ctx, token)
	if err != nil {
		return false, "Sign-in failed. Please try again."
	}
	s.acceptCredential(ctx, cred)
	return true, ""
}

// Logout clears local state first for instant responsiveness, then revokes
// the provider session asynchronously, then raises the logout signal so the
// cart store clears itself even without a shared reference.
func (s *Store) Logout(ctx context.Context) {
	if s.local != nil {
		if err := s.local.Delete(localstore.KeyCart); err != nil {
			s.log.Warn("cart storage clear failed", zap.Error(err))
		}
	}
	s.mu.Lock()
	s.cred = Credential{}
	s.identity = api.Identity{}
	s.state = StateAnonymous
	s.mu.Unlock()

	go func() {
		if err := s.provider.SignOut(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("provider sign-out failed", zap.Error(err))
		}
	}()

	if s.bus != nil {
		s.bus.Notify(syncbus.TopicLogout)
	}
	s.fireChange(StateAnonymous)
}

// HandleUnauthorized runs the best-effort refresh check after a 401. When
// the provider session is truly gone the store drops to Anonymous.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	s.mu.RLock()
	hasToken := s.cred.AccessToken != ""
	s.mu.RUnlock()
	if !hasToken {
		return
	}
	cred, err := s.provider.Refresh(ctx)
	if err != nil {
		s.forceAnonymous()
		return
	}
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
}

// State reports the current lifecycle phase.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the current identity; ok is false unless Authenticated.
func (s *Store) Identity() (api.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.state == StateAuthenticated
}

// Token returns the current bearer credential, empty when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.AccessToken
}

func (s *Store) forceAnonymousFromInit() {
	s.mu.Lock()
	if s.state != StateInitializing {
		s.mu.Unlock()
		return
	}
	s.state = StateAnonymous
	s.mu.Unlock()
	s.fireChange(StateAnonymous)
}

func (s *Store) forceAnonymous() {
	s.mu.Lock()
	s.cred = Credential{}
	s.identity = api.Identity{}
	s.state = StateAnonymous
	s.mu.Unlock()
	s.fireChange(StateAnonymous)
}

func (s *Store) fireChange(state State) {
	s.changeMu.Lock()
	fns := make([]func(State), len(s.onChange))
	copy(fns, s.onChange)
	s.changeMu.Unlock()
	for _, fn := range fns {
		fn(state)
	}
}

// identityFromClaims derives a degraded identity from the token's own
// claims, used until (or instead of) a successful backend exchange.
func identityFromClaims(token string) api.Identity {
	claims := decodeClaims(token)
	email, _ := claims["email"].(string)
	if email == "" {
		email, _ = claims["sub"].(string)
	}
	return api.Identity{Email: email, Role: api.RoleCustomer}
}

func fullNameFromClaims(token string) string {
	claims := decodeClaims(token)
	if meta, ok := claims["user_metadata"].(map[string]any); ok {
		if name, ok := meta["full_name"].(string); ok && name != "" {
			return name
		}
		if name, ok := meta["name"].(string); ok && name != "" {
			return name
		}
	}
	if name, ok := claims["name"].(string); ok {
		return name
	}
	return ""
}

func decodeClaims(token string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return jwt.MapClaims{}
	}
	return claims
}
