package auth

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "student", want: RoleStudent},
		{in: "admin", want: RoleAdmin},
		{in: "faculty", want: RoleFaculty},
		{in: "", wantErr: true},
		{in: "Student", wantErr: true},
		{in: "superuser", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRole) {
					t.Errorf("ParseRole(%q) error = %v, want ErrUnknownRole", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseRole(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestPrincipalMerge(t *testing.T) {
	p := Principal{
		ID:      "u1",
		Name:    "Awa",
		Email:   "awa@test.test",
		Role:    RoleStudent,
		Profile: Profile{"semester": "S3", "cgpa": 3.4},
	}

	merged := p.Merge(Principal{
		Name:    "Awa Ndiaye",
		Role:    RoleAdmin, // must be ignored
		Profile: Profile{"semester": "S4"},
	})

	assert.Equal(t, "Awa Ndiaye", merged.Name)
	assert.Equal(t, "awa@test.test", merged.Email)
	assert.Equal(t, RoleStudent, merged.Role, "role is immutable for the session")
	assert.Equal(t, "S4", merged.Profile.GetString("semester"))
	assert.Equal(t, 3.4, merged.Profile["cgpa"], "untouched profile keys survive the merge")

	// the original is not mutated
	assert.Equal(t, "Awa", p.Name)
	assert.Equal(t, "S3", p.Profile.GetString("semester"))
}

func TestPrincipalUnmarshalJSON(t *testing.T) {
	var p Principal
	data := []byte(`{"id":"u1","name":"Awa","email":"awa@test.test","role":"student","profile":{"semester":"S3"}}`)
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Unmarshal(): %v", err)
	}
	assert.Equal(t, RoleStudent, p.Role)
	assert.Equal(t, "S3", p.Profile.GetString("semester"))

	// unknown roles are rejected at the decoding boundary
	var bad Principal
	err := json.Unmarshal([]byte(`{"id":"u1","role":"wizard"}`), &bad)
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("Unmarshal() error = %v, want ErrUnknownRole", err)
	}
}

func TestStatusDeterminate(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusUnknown, false},
		{StatusAuthenticating, false},
		{StatusAuthenticated, true},
		{StatusAnonymous, true},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.Determinate(); got != tt.want {
				t.Errorf("Determinate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProfileGetString(t *testing.T) {
	var nilProfile Profile
	assert.Equal(t, "", nilProfile.GetString("anything"))

	p := Profile{"dept": "CS", "credits": 120}
	assert.Equal(t, "CS", p.GetString("dept"))
	assert.Equal(t, "", p.GetString("credits"), "non-string values read as empty")
	assert.Equal(t, "", p.GetString("missing"))
}
