// Package session owns the client session: the durable token, the
// authenticated principal and the lifecycle status. All mutation funnels
// through Store methods; everything else only reads snapshots.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/campusgate/campusgate/core/auth"
)

// Credentials are login inputs, as submitted by the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the payload for creating a new account upstream.
type Registration struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// Authenticator is the auth surface of the upstream REST collaborator.
type Authenticator interface {
	// Login exchanges credentials for a durable token and the principal.
	Login(ctx context.Context, creds Credentials) (string, auth.Principal, error)
	// Register creates the principal upstream, then behaves like Login.
	Register(ctx context.Context, reg Registration) (string, auth.Principal, error)
	// Profile exchanges a durable token for the current principal.
	Profile(ctx context.Context, token string) (auth.Principal, error)
}

// Keychain persists the durable token across client restarts.
// The portal's HTTP layer backs it with the `token` cookie.
type Keychain interface {
	Token() string
	Store(token string)
	Clear()
}

// ErrCacheMiss is returned by Cache.Get when no entry exists for the token.
var ErrCacheMiss = errors.New("session cache miss")

// Cache is a short-lived token→principal cache so that every navigation does
// not cost an upstream round trip. Implementations own the TTL policy.
type Cache interface {
	Get(ctx context.Context, token string) (auth.Principal, error)
	Save(ctx context.Context, token string, principal auth.Principal) error
	Delete(ctx context.Context, token string) error
}

// Snapshot is a read-only view of the session, safe to hand to observers.
type Snapshot struct {
	Status    auth.Status
	Principal *auth.Principal
	Token     string
}

// IsAuthenticated reports status == authenticated.
func (s Snapshot) IsAuthenticated() bool { return s.Status == auth.StatusAuthenticated }

// Role returns the session role, or "" when there is no principal.
func (s Snapshot) Role() auth.Role {
	if s.Principal == nil {
		return ""
	}
	return s.Principal.Role
}

// Observer is notified synchronously after every session transition.
type Observer func(Snapshot)

// Store holds the only mutable copy of {token, principal, status}.
// Store methods are the single writer path; concurrent readers use Snapshot.
type Store struct {
	authn Authenticator
	keys  Keychain
	cache Cache

	mu        sync.Mutex
	status    auth.Status
	principal *auth.Principal
	token     string
	loginSeq  uint64
	observers []Observer
}

// NewStore creates a session in the unknown state. cache may be nil.
func NewStore(authn Authenticator, keys Keychain, cache Cache) *Store {
	return &Store{
		authn:  authn,
		keys:   keys,
		cache:  cache,
		status: auth.StatusUnknown,
	}
}

// Subscribe registers an observer for session transitions. Observers are
// invoked synchronously so that guards re-evaluate before the next decision.
func (s *Store) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// Snapshot returns the current session view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() Snapshot {
	var p *auth.Principal
	if s.principal != nil {
		cp := *s.principal
		p = &cp
	}
	return Snapshot{Status: s.status, Principal: p, Token: s.token}
}

func (s *Store) notify(snap Snapshot, observers []Observer) {
	for _, obs := range observers {
		obs(snap)
	}
}

// Login authenticates against the collaborator. On success the token is
// persisted and the session becomes authenticated. On invalid credentials the
// session is forced anonymous; on network/server errors it is left untouched.
// A login issued while another is pending supersedes it (last write wins).
func (s *Store) Login(ctx context.Context, creds Credentials) (auth.Principal, error) {
	s.mu.Lock()
	s.loginSeq++
	seq := s.loginSeq
	s.mu.Unlock()

	token, principal, err := s.authn.Login(ctx, creds)
	return s.completeAuth(ctx, seq, token, principal, err)
}

// Register creates the account upstream, then behaves exactly like Login.
func (s *Store) Register(ctx context.Context, reg Registration) (auth.Principal, error) {
	s.mu.Lock()
	s.loginSeq++
	seq := s.loginSeq
	s.mu.Unlock()

	token, principal, err := s.authn.Register(ctx, reg)
	return s.completeAuth(ctx, seq, token, principal, err)
}

func (s *Store) completeAuth(ctx context.Context, seq uint64, token string, principal auth.Principal, err error) (auth.Principal, error) {
	s.mu.Lock()
	if seq != s.loginSeq { // superseded by a later attempt
		s.mu.Unlock()
		return auth.Principal{}, err
	}

	if err != nil {
		if errors.Is(err, auth.ErrNetwork) || errors.Is(err, auth.ErrServer) {
			// an existing valid session is not cleared because one request failed
			s.mu.Unlock()
			return auth.Principal{}, err
		}
		s.principal = nil
		s.token = ""
		s.status = auth.StatusAnonymous
		snap, observers := s.snapshot(), s.observers
		s.mu.Unlock()
		s.keys.Clear()
		s.notify(snap, observers)
		return auth.Principal{}, err
	}

	s.token = token
	s.principal = &principal
	s.status = auth.StatusAuthenticated
	snap, observers := s.snapshot(), s.observers
	s.mu.Unlock()

	s.keys.Store(token)
	if s.cache != nil {
		_ = s.cache.Save(ctx, token, principal)
	}
	s.notify(snap, observers)
	return principal, nil
}

// Logout clears the session unconditionally. It never fails and is idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.principal = nil
	s.status = auth.StatusAnonymous
	snap, observers := s.snapshot(), s.observers
	s.mu.Unlock()

	s.keys.Clear()
	if s.cache != nil && token != "" {
		_ = s.cache.Delete(ctx, token)
	}
	s.notify(snap, observers)
}

// Hydrate runs the bootstrap sequence: no persisted token means anonymous
// immediately; otherwise the token is exchanged for a fresh principal
// (cache first, collaborator on miss). A token rejection triggers exactly one
// silent direct retry; a second rejection forces anonymous and discards the
// token. Network/server failures make the session anonymous for this run but
// keep the token so a later boot can retry.
func (s *Store) Hydrate(ctx context.Context) error {
	token := s.keys.Token()
	if token == "" {
		s.mu.Lock()
		s.principal = nil
		s.token = ""
		s.status = auth.StatusAnonymous
		snap, observers := s.snapshot(), s.observers
		s.mu.Unlock()
		s.notify(snap, observers)
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.status = auth.StatusAuthenticating
	snap, observers := s.snapshot(), s.observers
	s.mu.Unlock()
	s.notify(snap, observers)

	if s.cache != nil {
		if principal, err := s.cache.Get(ctx, token); err == nil {
			s.adopt(principal)
			return nil
		}
	}

	principal, err := s.authn.Profile(ctx, token)
	if errors.Is(err, auth.ErrInvalidToken) {
		// stale cache or transient rejection: one silent re-hydration
		principal, err = s.authn.Profile(ctx, token)
	}
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			s.Logout(ctx)
			return err
		}
		// collaborator unreachable: determinate anonymous, token kept
		s.mu.Lock()
		s.principal = nil
		s.status = auth.StatusAnonymous
		snap, observers := s.snapshot(), s.observers
		s.mu.Unlock()
		s.notify(snap, observers)
		return err
	}

	if s.cache != nil {
		_ = s.cache.Save(ctx, token, principal)
	}
	s.adopt(principal)
	return nil
}

func (s *Store) adopt(principal auth.Principal) {
	s.mu.Lock()
	s.principal = &principal
	s.status = auth.StatusAuthenticated
	snap, observers := s.snapshot(), s.observers
	s.mu.Unlock()
	s.notify(snap, observers)
}

// UpdatePrincipal merges a partial principal (e.g. refreshed profile fields)
// into the session without re-authenticating. No-op unless authenticated.
func (s *Store) UpdatePrincipal(ctx context.Context, patch auth.Principal) {
	s.mu.Lock()
	if s.status != auth.StatusAuthenticated || s.principal == nil {
		s.mu.Unlock()
		return
	}
	merged := s.principal.Merge(patch)
	s.principal = &merged
	token := s.token
	snap, observers := s.snapshot(), s.observers
	s.mu.Unlock()

	if s.cache != nil {
		_ = s.cache.Save(ctx, token, merged)
	}
	s.notify(snap, observers)
}

// Invalidate reacts to an authenticated request failing with a token
// rejection outside the auth flow itself: the session is cleared like logout.
func (s *Store) Invalidate(ctx context.Context) {
	s.Logout(ctx)
}
