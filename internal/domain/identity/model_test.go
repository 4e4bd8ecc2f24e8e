package identity

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in    string
		want  Role
		valid bool
	}{
		{"ADMIN", RoleAdmin, true},
		{"CLINICIAN", RoleClinician, true},
		{"NURSE", RoleNurse, true},
		{"STAFF", RoleStaff, true},
		{"admin", "", false},
		{"PHYSICIAN", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if ok != tt.valid {
			t.Errorf("ParseRole(%q) valid = %v, want %v", tt.in, ok, tt.valid)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range AllRoles {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("SUPERUSER").Valid() {
		t.Error("SUPERUSER should not be valid")
	}
}
