package session

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/campusgate/campusgate/core/auth"
)

type fakeAuthn struct {
	loginFn    func(Credentials) (string, auth.Principal, error)
	registerFn func(Registration) (string, auth.Principal, error)
	profileFn  func(string) (auth.Principal, error)

	loginCalls   int
	profileCalls int
}

func (f *fakeAuthn) Login(_ context.Context, creds Credentials) (string, auth.Principal, error) {
	f.loginCalls++
	return f.loginFn(creds)
}

func (f *fakeAuthn) Register(_ context.Context, reg Registration) (string, auth.Principal, error) {
	return f.registerFn(reg)
}

func (f *fakeAuthn) Profile(_ context.Context, token string) (auth.Principal, error) {
	f.profileCalls++
	return f.profileFn(token)
}

type fakeKeychain struct {
	token  string
	clears int
}

func (k *fakeKeychain) Token() string      { return k.token }
func (k *fakeKeychain) Store(token string) { k.token = token }
func (k *fakeKeychain) Clear()             { k.token = ""; k.clears++ }

type fakeCache struct {
	entries map[string]auth.Principal
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]auth.Principal)}
}

func (c *fakeCache) Get(_ context.Context, token string) (auth.Principal, error) {
	p, ok := c.entries[token]
	if !ok {
		return auth.Principal{}, ErrCacheMiss
	}
	return p, nil
}

func (c *fakeCache) Save(_ context.Context, token string, p auth.Principal) error {
	c.entries[token] = p
	return nil
}

func (c *fakeCache) Delete(_ context.Context, token string) error {
	delete(c.entries, token)
	return nil
}

var (
	awa = auth.Principal{ID: "u1", Name: "Awa", Email: "awa@test.test", Role: auth.RoleStudent}
	sal = auth.Principal{ID: "u2", Name: "Sal", Email: "sal@test.test", Role: auth.RoleAdmin}

	okCreds = Credentials{Email: "awa@test.test", Password: "pwd"}
)

func loginOK(token string, p auth.Principal) func(Credentials) (string, auth.Principal, error) {
	return func(Credentials) (string, auth.Principal, error) { return token, p, nil }
}

func loginErr(err error) func(Credentials) (string, auth.Principal, error) {
	return func(Credentials) (string, auth.Principal, error) { return "", auth.Principal{}, err }
}

func TestLoginSuccess(t *testing.T) {
	authn := &fakeAuthn{loginFn: loginOK("tok1", awa)}
	keys := &fakeKeychain{}
	cache := newFakeCache()
	store := NewStore(authn, keys, cache)

	var seen []auth.Status
	store.Subscribe(func(snap Snapshot) { seen = append(seen, snap.Status) })

	principal, err := store.Login(context.Background(), okCreds)
	if err != nil {
		t.Fatalf("Login(): %v", err)
	}

	assert.Equal(t, awa, principal)
	snap := store.Snapshot()
	assert.True(t, snap.IsAuthenticated())
	assert.Equal(t, "tok1", snap.Token)
	assert.Equal(t, "tok1", keys.token, "token persisted for the next boot")
	assert.Equal(t, awa, cache.entries["tok1"])
	assert.Equal(t, []auth.Status{auth.StatusAuthenticated}, seen)
}

func TestLoginInvalidCredentials(t *testing.T) {
	authn := &fakeAuthn{loginFn: loginErr(auth.ErrInvalidCredentials)}
	keys := &fakeKeychain{token: "stale"}
	store := NewStore(authn, keys, nil)

	_, err := store.Login(context.Background(), okCreds)
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}

	snap := store.Snapshot()
	assert.Equal(t, auth.StatusAnonymous, snap.Status)
	assert.Nil(t, snap.Principal)
	assert.Equal(t, "", keys.token, "rejected credentials discard the durable token")
}

func TestLoginNetworkErrorLeavesSessionUntouched(t *testing.T) {
	authn := &fakeAuthn{loginFn: loginOK("tok1", awa)}
	keys := &fakeKeychain{}
	store := NewStore(authn, keys, nil)

	if _, err := store.Login(context.Background(), okCreds); err != nil {
		t.Fatalf("Login(): %v", err)
	}

	// a second attempt hits a network failure
	authn.loginFn = loginErr(auth.ErrNetwork)
	_, err := store.Login(context.Background(), okCreds)
	if !errors.Is(err, auth.ErrNetwork) {
		t.Fatalf("Login() error = %v, want ErrNetwork", err)
	}

	snap := store.Snapshot()
	assert.True(t, snap.IsAuthenticated(), "an existing session survives a failed request")
	assert.Equal(t, "tok1", snap.Token)
	assert.Equal(t, awa, *snap.Principal)
}

func TestLoginSupersededByLaterAttempt(t *testing.T) {
	authn := &fakeAuthn{}
	keys := &fakeKeychain{}
	store := NewStore(authn, keys, nil)

	// the first login triggers a second one before it resolves;
	// the second must win
	authn.loginFn = func(Credentials) (string, auth.Principal, error) {
		authn.loginFn = loginOK("tok2", sal)
		if _, err := store.Login(context.Background(), okCreds); err != nil {
			t.Fatalf("inner Login(): %v", err)
		}
		return "tok1", awa, nil
	}

	_, _ = store.Login(context.Background(), okCreds)

	snap := store.Snapshot()
	assert.Equal(t, "tok2", snap.Token, "the later attempt wins")
	assert.Equal(t, sal, *snap.Principal)
	assert.Equal(t, "tok2", keys.token)
}

func TestLogoutIdempotent(t *testing.T) {
	authn := &fakeAuthn{loginFn: loginOK("tok1", awa)}
	keys := &fakeKeychain{}
	cache := newFakeCache()
	store := NewStore(authn, keys, cache)

	if _, err := store.Login(context.Background(), okCreds); err != nil {
		t.Fatalf("Login(): %v", err)
	}

	var notifications int
	store.Subscribe(func(Snapshot) { notifications++ })

	store.Logout(context.Background())
	store.Logout(context.Background()) // signing out twice still succeeds

	snap := store.Snapshot()
	assert.Equal(t, auth.StatusAnonymous, snap.Status)
	assert.Nil(t, snap.Principal)
	assert.Equal(t, "", keys.token)
	assert.Empty(t, cache.entries)
	assert.Equal(t, 2, notifications, "observers hear every transition, even no-ops")
}

func TestHydrateNoToken(t *testing.T) {
	authn := &fakeAuthn{profileFn: func(string) (auth.Principal, error) { return awa, nil }}
	store := NewStore(authn, &fakeKeychain{}, nil)

	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate(): %v", err)
	}

	assert.Equal(t, auth.StatusAnonymous, store.Snapshot().Status)
	assert.Equal(t, 0, authn.profileCalls, "no token means no collaborator round trip")
}

func TestHydrateCacheHit(t *testing.T) {
	authn := &fakeAuthn{profileFn: func(string) (auth.Principal, error) { return awa, nil }}
	cache := newFakeCache()
	cache.entries["tok1"] = awa
	store := NewStore(authn, &fakeKeychain{token: "tok1"}, cache)

	var seen []auth.Status
	store.Subscribe(func(snap Snapshot) { seen = append(seen, snap.Status) })

	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate(): %v", err)
	}

	snap := store.Snapshot()
	assert.True(t, snap.IsAuthenticated())
	assert.Equal(t, awa, *snap.Principal)
	assert.Equal(t, 0, authn.profileCalls, "cache hit skips the collaborator")
	assert.Equal(t, []auth.Status{auth.StatusAuthenticating, auth.StatusAuthenticated}, seen)
}

func TestHydrateRetriesOnceOnTokenRejection(t *testing.T) {
	calls := 0
	authn := &fakeAuthn{profileFn: func(string) (auth.Principal, error) {
		calls++
		if calls == 1 {
			return auth.Principal{}, auth.ErrInvalidToken
		}
		return awa, nil
	}}
	store := NewStore(authn, &fakeKeychain{token: "tok1"}, nil)

	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate(): %v", err)
	}

	assert.True(t, store.Snapshot().IsAuthenticated())
	assert.Equal(t, 2, authn.profileCalls, "exactly one silent retry")
}

func TestHydrateDoubleTokenRejectionForcesAnonymous(t *testing.T) {
	authn := &fakeAuthn{profileFn: func(string) (auth.Principal, error) {
		return auth.Principal{}, auth.ErrInvalidToken
	}}
	keys := &fakeKeychain{token: "tok1"}
	store := NewStore(authn, keys, nil)

	err := store.Hydrate(context.Background())
	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("Hydrate() error = %v, want ErrInvalidToken", err)
	}

	snap := store.Snapshot()
	assert.Equal(t, auth.StatusAnonymous, snap.Status)
	assert.Equal(t, "", keys.token, "a rejected token is discarded")
	assert.Equal(t, 2, authn.profileCalls)
}

func TestHydrateNetworkFailureKeepsToken(t *testing.T) {
	authn := &fakeAuthn{profileFn: func(string) (auth.Principal, error) {
		return auth.Principal{}, auth.ErrNetwork
	}}
	keys := &fakeKeychain{token: "tok1"}
	store := NewStore(authn, keys, nil)

	err := store.Hydrate(context.Background())
	if !errors.Is(err, auth.ErrNetwork) {
		t.Fatalf("Hydrate() error = %v, want ErrNetwork", err)
	}

	snap := store.Snapshot()
	assert.Equal(t, auth.StatusAnonymous, snap.Status, "unreachable collaborator still resolves the boot")
	assert.Equal(t, "tok1", keys.token, "the token survives for the next boot")
	assert.Equal(t, 1, authn.profileCalls, "network failures are not retried")
}

func TestUpdatePrincipal(t *testing.T) {
	authn := &fakeAuthn{loginFn: loginOK("tok1", awa)}
	cache := newFakeCache()
	store := NewStore(authn, &fakeKeychain{}, cache)

	// no-op while anonymous
	store.UpdatePrincipal(context.Background(), auth.Principal{Name: "Nobody"})
	assert.Equal(t, auth.StatusUnknown, store.Snapshot().Status)

	if _, err := store.Login(context.Background(), okCreds); err != nil {
		t.Fatalf("Login(): %v", err)
	}

	store.UpdatePrincipal(context.Background(), auth.Principal{
		Name:    "Awa Ndiaye",
		Profile: auth.Profile{"semester": "S4"},
	})

	snap := store.Snapshot()
	assert.Equal(t, "Awa Ndiaye", snap.Principal.Name)
	assert.Equal(t, awa.Email, snap.Principal.Email)
	assert.Equal(t, "S4", snap.Principal.Profile.GetString("semester"))
	assert.Equal(t, "Awa Ndiaye", cache.entries["tok1"].Name, "the cache follows the merged principal")
}

func TestInvalidateClearsSession(t *testing.T) {
	authn := &fakeAuthn{loginFn: loginOK("tok1", awa)}
	keys := &fakeKeychain{}
	store := NewStore(authn, keys, nil)

	if _, err := store.Login(context.Background(), okCreds); err != nil {
		t.Fatalf("Login(): %v", err)
	}

	store.Invalidate(context.Background())

	assert.Equal(t, auth.StatusAnonymous, store.Snapshot().Status)
	assert.Equal(t, "", keys.token)
}
