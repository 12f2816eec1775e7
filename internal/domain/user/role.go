package user

import (
	"errors"
	"strings"
)

// Role is the access level carried in a board token.
type Role string

const (
	RoleViewer   Role = "VIEWER"   // may watch the departure board
	RoleOperator Role = "OPERATOR" // viewer plus pipeline inspection
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole normalizes (uppercases+trims) and validates a role string.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if role.Valid() {
		return role, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether role is one of the allowed role constants.
func (role Role) Valid() bool {
	switch role {
	case RoleViewer, RoleOperator:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Role.
func (role Role) String() string {
	return string(role)
}

// BoardRoles are the roles allowed to read the departure board.
var BoardRoles = []Role{RoleViewer, RoleOperator}
