package model

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleRegistryAdmin UserRole = "REGISTRY_ADMIN"
	UserRoleOperator      UserRole = "OPERATOR"
	UserRoleViewer        UserRole = "VIEWER"
)

type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}

// HasRole reports whether the principal holds any of roles.
func (p Principal) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
