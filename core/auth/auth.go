// Package auth holds the portal's domain types for authentication and
// route guarding. It is pure and free of transport/adapter concerns.
package auth

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Role is one of a closed set of disjoint tags determining route access.
// Roles do not form a hierarchy: an admin is not a "more privileged student".
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole rejects anything outside the closed role set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleAdmin, RoleFaculty:
		return r, nil
	}
	return "", errors.Wrap(ErrUnknownRole, s)
}

// RoleSet is a set of allowed roles attached to a route.
// The empty set means "any authenticated role".
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	rs := make(RoleSet, len(roles))
	for _, r := range roles {
		rs[r] = struct{}{}
	}
	return rs
}

func (rs RoleSet) Contains(r Role) bool {
	_, ok := rs[r]
	return ok
}

// IsAny reports whether the set allows any authenticated role.
func (rs RoleSet) IsAny() bool { return len(rs) == 0 }

// Profile is an opaque bag of user attributes (cgpa, semester, department, ...)
// owned by the upstream user service. The portal never interprets its contents;
// accessors are defensive and missing keys are not an error.
type Profile map[string]interface{}

// GetString returns the string value under key, or "" when absent or not a string.
func (p Profile) GetString(key string) string {
	if p == nil {
		return ""
	}
	s, _ := p[key].(string)
	return s
}

// Principal is the authenticated user record held by the session.
type Principal struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Role    Role    `json:"role"`
	Profile Profile `json:"profile,omitempty"`
}

// Merge applies a partial principal on top of p and returns the result.
// Zero-valued patch fields are ignored; profile keys are merged shallowly.
// Role is immutable for the lifetime of a session and is never patched.
func (p Principal) Merge(patch Principal) Principal {
	if patch.Name != "" {
		p.Name = patch.Name
	}
	if patch.Email != "" {
		p.Email = patch.Email
	}
	if patch.Profile != nil {
		merged := make(Profile, len(p.Profile)+len(patch.Profile))
		for k, v := range p.Profile {
			merged[k] = v
		}
		for k, v := range patch.Profile {
			merged[k] = v
		}
		p.Profile = merged
	}
	return p
}

// UnmarshalJSON tolerates unknown roles in upstream payloads only to the
// extent of surfacing them as an error at the decoding boundary.
func (p *Principal) UnmarshalJSON(data []byte) error {
	type alias Principal
	var a struct {
		alias
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	role, err := ParseRole(a.Role)
	if err != nil {
		return err
	}
	*p = Principal(a.alias)
	p.Role = role
	return nil
}

// Status is the session lifecycle state.
type Status int

const (
	// StatusUnknown is the boot state, before the durable token has been looked at.
	StatusUnknown Status = iota
	// StatusAuthenticating means a token is being exchanged for a principal.
	StatusAuthenticating
	// StatusAuthenticated is terminal: principal and token are both set.
	StatusAuthenticated
	// StatusAnonymous is terminal: no principal.
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return "invalid"
}

// Determinate reports whether the bootstrap hydrate has resolved.
func (s Status) Determinate() bool {
	return s == StatusAuthenticated || s == StatusAnonymous
}
