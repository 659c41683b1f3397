package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Role classifies a signed-in user for content visibility.
type Role int

const (
	RoleStandard Role = iota
	RolePrivileged
	RoleAdmin
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleAdmin, RolePrivileged, RoleStandard}

// String returns the wire name. The names are the ones stored by the
// first version of the app and must not change.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RolePrivileged:
		return "princess"
	case RoleStandard:
		return "reader"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Label is the human readable name shown next to the user.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RolePrivileged:
		return "Princesse"
	case RoleStandard:
		return "Lecteur"
	default:
		return "Lecteur"
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePrivileged, RoleStandard:
		return true
	default:
		return false
	}
}

// ParseRole parses a wire name. Unknown names are an error, never a role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "princess":
		return RolePrivileged, nil
	case "reader":
		return RoleStandard, nil
	default:
		return RoleStandard, fmt.Errorf("unknown role %q", s)
	}
}

// MarshalJSON encodes the wire name.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid role %d", int(r))
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a wire name.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Scan 实现 sql.Scanner 接口
func (r *Role) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case nil:
		*r = RoleStandard
		return nil
	default:
		return fmt.Errorf("unsupported role column type %T", value)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value 实现 driver.Valuer 接口
func (r Role) Value() (driver.Value, error) {
	return r.String(), nil
}

// RoleList is a visibility set stored as a JSON array column.
// An empty list means "visible to every role".
type RoleList []Role

// Contains reports whether role is in the list.
func (l RoleList) Contains(role Role) bool {
	for _, r := range l {
		if r == role {
			return true
		}
	}
	return false
}

// Scan 实现 sql.Scanner 接口
func (l *RoleList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported visibility column type %T", value)
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Value 实现 driver.Valuer 接口
func (l RoleList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
