package auth

import "testing"

func TestDecide(t *testing.T) {
	student := NewRoleSet(RoleStudent)
	admin := NewRoleSet(RoleAdmin)
	anyRole := NewRoleSet()

	tests := []struct {
		name    string
		status  Status
		role    Role
		allowed RoleSet
		want    Decision
	}{
		// indeterminate statuses always suspend, never redirect
		{name: "unknown suspends", status: StatusUnknown, allowed: student, want: DecisionSuspend},
		{name: "unknown suspends on open route", status: StatusUnknown, allowed: anyRole, want: DecisionSuspend},
		{name: "authenticating suspends", status: StatusAuthenticating, allowed: student, want: DecisionSuspend},
		{name: "authenticating suspends on admin route", status: StatusAuthenticating, allowed: admin, want: DecisionSuspend},

		// anonymous always goes to login
		{name: "anonymous to login", status: StatusAnonymous, allowed: student, want: DecisionRedirectLogin},
		{name: "anonymous to login on open route", status: StatusAnonymous, allowed: anyRole, want: DecisionRedirectLogin},
		{name: "anonymous to login on admin route", status: StatusAnonymous, allowed: admin, want: DecisionRedirectLogin},

		// authenticated: role membership decides
		{name: "student on student route", status: StatusAuthenticated, role: RoleStudent, allowed: student, want: DecisionRender},
		{name: "student on admin route", status: StatusAuthenticated, role: RoleStudent, allowed: admin, want: DecisionRedirectHome},
		{name: "admin on student route", status: StatusAuthenticated, role: RoleAdmin, allowed: student, want: DecisionRedirectHome},
		{name: "admin on admin route", status: StatusAuthenticated, role: RoleAdmin, allowed: admin, want: DecisionRender},
		{name: "faculty on open route", status: StatusAuthenticated, role: RoleFaculty, allowed: anyRole, want: DecisionRender},
		{name: "student on open route", status: StatusAuthenticated, role: RoleStudent, allowed: anyRole, want: DecisionRender},
		{name: "faculty on admin route", status: StatusAuthenticated, role: RoleFaculty, allowed: admin, want: DecisionRedirectHome},

		// out-of-range status suspends rather than leaking content
		{name: "invalid status suspends", status: Status(42), role: RoleStudent, allowed: student, want: DecisionSuspend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.status, tt.role, tt.allowed); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescriptorGuard(t *testing.T) {
	desc := Descriptor{Path: "/fees", AllowedRoles: NewRoleSet(RoleStudent)}

	if got := desc.Guard(StatusAuthenticated, RoleStudent); got != DecisionRender {
		t.Errorf("Guard() = %v, want %v", got, DecisionRender)
	}
	if got := desc.Guard(StatusAnonymous, ""); got != DecisionRedirectLogin {
		t.Errorf("Guard() = %v, want %v", got, DecisionRedirectLogin)
	}
}
