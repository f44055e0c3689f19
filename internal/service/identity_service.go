package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/inkpress/internal/db"
)

// IdentityService resolves caller identities to role sets and manages role
// assignments. Readers hold no role rows at all.
type IdentityService struct {
	db *gorm.DB
}

// NewIdentityService creates an IdentityService instance.
func NewIdentityService(gdb *gorm.DB) *IdentityService {
	return &IdentityService{db: gdb}
}

// RolesOf returns the set of roles assigned to a user. A user without any
// role rows yields an empty set, never an error.
func (s *IdentityService) RolesOf(userID uint) (map[db.Role]bool, error) {
	var rows []db.UserRole
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, storeError("list roles", err)
	}

	roles := make(map[db.Role]bool, len(rows))
	for _, row := range rows {
		roles[row.Role] = true
	}
	return roles, nil
}

// HasAccess reports whether the user holds at least one of the required roles.
func (s *IdentityService) HasAccess(userID uint, required ...db.Role) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	roles, err := s.RolesOf(userID)
	if err != nil {
		return false, err
	}

	for _, role := range required {
		if roles[role] {
			return true, nil
		}
	}
	return false, nil
}

// IsAdmin reports whether the user holds the admin role.
func (s *IdentityService) IsAdmin(userID uint) (bool, error) {
	return s.HasAccess(userID, db.RoleAdmin)
}

// SetRole 替换用户的角色：先删除该用户的全部角色行，再插入唯一的新行。
// 仅管理员可调用。
func (s *IdentityService) SetRole(callerID, userID uint, role db.Role) error {
	if err := s.requireAdmin(callerID); err != nil {
		return err
	}

	if !role.Valid() {
		return validationFailed("role", "must be admin or editor")
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return storeError("load profile", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&db.UserRole{}).Error; err != nil {
			return storeError("replace role", err)
		}
		if err := tx.Create(&db.UserRole{UserID: userID, Role: role}).Error; err != nil {
			return storeError("replace role", err)
		}
		return nil
	})
}

// ClearRole 删除用户的全部角色行，使其回到普通读者
func (s *IdentityService) ClearRole(callerID, userID uint) error {
	if err := s.requireAdmin(callerID); err != nil {
		return err
	}

	if err := s.db.Where("user_id = ?", userID).Delete(&db.UserRole{}).Error; err != nil {
		return storeError("clear role", err)
	}
	return nil
}

func (s *IdentityService) requireAdmin(callerID uint) error {
	if callerID == 0 {
		return ErrAuthRequired
	}
	isAdmin, err := s.IsAdmin(callerID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrPermissionDenied
	}
	return nil
}
