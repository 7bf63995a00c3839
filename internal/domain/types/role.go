// Package types define tipos de dominio compartidos entre paquetes.
package types

import (
	"errors"
	"strings"
)

// Role es el rol de un usuario. El conjunto es cerrado: sólo los valores
// declarados abajo son válidos.
type Role string

const (
	RoleSuperAdmin  Role = "SuperAdmin"
	RoleSupport     Role = "Support"
	RoleAdminClient Role = "AdminClient"
	RoleClientUser  Role = "ClientUser"
)

var ErrUnknownRole = errors.New("unknown role")

var roles = []Role{RoleSuperAdmin, RoleSupport, RoleAdminClient, RoleClientUser}

// ParseRole convierte un nombre (case-insensitive) al Role canónico.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range roles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", ErrUnknownRole
}

// RequiresTenant indica si el rol pertenece a un tenant (usuarios cliente).
func (r Role) RequiresTenant() bool {
	return r == RoleAdminClient || r == RoleClientUser
}

func (r Role) String() string { return string(r) }
