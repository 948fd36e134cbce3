package domain

import dErrors "homeloan/pkg/domain-errors"

// Role identifies which side of the lending relationship an actor is on.
// Invariant: the value must be one of the supported roles.
//
// Construct via ParseRole at trust boundaries; direct casting bypasses validation.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

var validRoles = map[Role]bool{
	RoleBuyer:    true,
	RoleReviewer: true,
	RoleAdmin:    true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role is required")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid role: "+s)
	}
	return r, nil
}

func (r Role) IsValid() bool { return validRoles[r] }

func (r Role) String() string { return string(r) }
