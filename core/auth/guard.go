package auth

// Decision is the outcome of guarding one navigation attempt.
type Decision int

const (
	// DecisionSuspend: the session status is not determinate yet; render
	// nothing, and in particular do not redirect to the login page.
	DecisionSuspend Decision = iota
	// DecisionRender: the route's content may be shown.
	DecisionRender
	// DecisionRedirectLogin: anonymous client on a protected route.
	DecisionRedirectLogin
	// DecisionRedirectHome: authenticated client whose role is not allowed.
	DecisionRedirectHome
)

func (d Decision) String() string {
	switch d {
	case DecisionSuspend:
		return "suspend"
	case DecisionRender:
		return "render"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionRedirectHome:
		return "redirect-home"
	}
	return "invalid"
}

// Decide maps (status, role, allowedRoles) to exactly one Decision.
// It is total: every combination is handled, and role containment is a
// set-membership check, never a hierarchy check.
func Decide(status Status, role Role, allowed RoleSet) Decision {
	switch status {
	case StatusUnknown, StatusAuthenticating:
		return DecisionSuspend
	case StatusAnonymous:
		return DecisionRedirectLogin
	case StatusAuthenticated:
		if allowed.IsAny() || allowed.Contains(role) {
			return DecisionRender
		}
		return DecisionRedirectHome
	}
	// out-of-range Status values cannot carry content
	return DecisionSuspend
}

// Descriptor is the static configuration of one guarded route.
// An empty AllowedRoles set admits any authenticated role.
type Descriptor struct {
	Path         string
	AllowedRoles RoleSet
}

// Guard evaluates the route's guard for the given session state.
func (d Descriptor) Guard(status Status, role Role) Decision {
	return Decide(status, role, d.AllowedRoles)
}
