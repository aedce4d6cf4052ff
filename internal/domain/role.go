package domain

import (
	"database/sql/driver"
	"fmt"
)

// Role is the closed set of account roles. The zero value is not a valid role.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleLibrarian
	RoleAdmin
)

// Roles lists every valid role, lowest privilege first.
var Roles = []Role{RoleUser, RoleLibrarian, RoleAdmin}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleLibrarian:
		return "librarian"
	case RoleAdmin:
		return "admin"
	}
	return ""
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool { return r >= RoleUser && r <= RoleAdmin }

// ParseRole maps the wire name of a role onto Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role by name.
func (r Role) Value() (driver.Value, error) {
	return r.String(), nil
}

// Scan reads a role name written by Value.
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = 0
		return nil
	}
	return fmt.Errorf("cannot scan %T into Role", src)
}
