package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of application roles. Tokens carry roles as free-form
// strings; converting one into a Role is a fallible parse, never a cast.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleClinician Role = "CLINICIAN"
	RoleNurse     Role = "NURSE"
	RoleStaff     Role = "STAFF"
)

// AllRoles lists every valid role.
var AllRoles = []Role{RoleAdmin, RoleClinician, RoleNurse, RoleStaff}

// ParseRole converts a claim string into a Role. The second return value is
// false when the string is not a member of the allowed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleClinician, RoleNurse, RoleStaff:
		return Role(s), true
	}
	return "", false
}

// Valid reports whether r is a member of the allowed role set.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Identity maps to the app_user table. Email is the natural key, stored
// lowercased; role and display name follow the last verified token.
type Identity struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	ClinicID  string    `db:"clinic_id" json:"clinic_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Clinic maps to the clinic table. A clinic is the tenant boundary; every
// clinical record belongs to exactly one clinic.
type Clinic struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
