package auth

import (
	"errors"

	"github.com/Thomas-Okram/TapTell/internal/model"
)

var ErrPrincipalMissingSchool = errors.New("school admin principal requires a school")

// Principal is the resolved identity behind an admin credential. The zero
// value is not a valid principal; use SuperAdmin or SchoolAdmin.
type Principal struct {
	role     model.Role
	adminID  string
	schoolID string
}

// SuperAdmin builds an unscoped principal. adminID is empty for the static key.
func SuperAdmin(adminID string) Principal {
	return Principal{role: model.RoleSuperAdmin, adminID: adminID}
}

func SchoolAdmin(adminID, schoolID string) (Principal, error) {
	if schoolID == "" {
		return Principal{}, ErrPrincipalMissingSchool
	}
	return Principal{role: model.RoleSchoolAdmin, adminID: adminID, schoolID: schoolID}, nil
}

func (p Principal) Role() model.Role { return p.role }
func (p Principal) AdminID() string { return p.adminID }
func (p Principal) SchoolID() string { return p.schoolID }
func (p Principal) IsSuperAdmin() bool {
	return p.role == model.RoleSuperAdmin
}

func (p Principal) Valid() bool {
	switch p.role {
	case model.RoleSuperAdmin:
		return true
	case model.RoleSchoolAdmin:
		return p.schoolID != ""
	default:
		return false
	}
}

func (p Principal) HasRole(roles ...model.Role) bool {
	for _, role := range roles {
		if p.role == role {
			return true
		}
	}
	return false
}
