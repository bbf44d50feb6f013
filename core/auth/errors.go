package auth

import "errors"

// Authentication error taxonomy. Callers branch with errors.Is; the
// underlying cause (status code, transport error) travels wrapped.
var (
	// ErrInvalidCredentials: bad login/register input. Recovered locally;
	// the form stays editable and the session is unchanged.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken: stale, forged or expired durable token. Recovered by
	// forcing the session anonymous and redirecting to the login page.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNetwork: the collaborator was unreachable or timed out. Surfaced to
	// the user; an existing valid session is never cleared because of it.
	ErrNetwork = errors.New("network error")

	// ErrServer: the collaborator answered with an unexpected failure.
	// Same recovery as ErrNetwork.
	ErrServer = errors.New("server error")
)
