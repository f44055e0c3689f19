package service

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/inkpress/internal/db"
)

// ErrInvalidCredentials 在邮箱或密码不匹配时返回，不区分两种失败
var ErrInvalidCredentials = errors.New("invalid email or password")

// ProfileService 负责账号注册、资料维护以及管理员对用户的管理操作
type ProfileService struct {
	db       *gorm.DB
	identity *IdentityService
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB, identity *IdentityService) *ProfileService {
	return &ProfileService{db: gdb, identity: identity}
}

// RegisterInput 描述注册时必须提供的字段
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// ProfileUpdate 描述资料更新时可设置的字段，nil 表示保持原值
type ProfileUpdate struct {
	Username  *string
	FullName  *string
	Bio       *string
	AvatarURL *string
}

// ProfileWithRoles 用于后台用户管理列表
type ProfileWithRoles struct {
	db.User
	Roles []db.Role `json:"roles"`
}

// Register creates a user account with a bcrypt hashed password. The profile
// is created implicitly with the identity; new accounts hold no roles.
func (s *ProfileService) Register(input RegisterInput) (*db.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)

	if err := checkUsername(input.Username); err != nil {
		return nil, err
	}
	if err := checkEmail(input.Email); err != nil {
		return nil, err
	}
	if err := checkPassword(input.Password); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, storeError("check username", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	if err := s.db.Model(&db.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, storeError("check email", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
		FullName: input.FullName,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, storeError("create profile", err)
	}
	return &user, nil
}

// Authenticate verifies an email/password pair and returns the matching user.
func (s *ProfileService) Authenticate(email, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", strings.TrimSpace(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError("load profile", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// UpdatePassword 为已登录用户设置新密码
func (s *ProfileService) UpdatePassword(userID uint, password string) error {
	if userID == 0 {
		return ErrAuthRequired
	}
	if err := checkPassword(password); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	result := s.db.Model(&db.User{}).Where("id = ?", userID).Update("password", string(hashed))
	if result.Error != nil {
		return storeError("update password", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Get fetches a profile by id.
func (s *ProfileService) Get(userID uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, storeError("load profile", err)
	}
	return &user, nil
}

// GetByUsername fetches a profile by its unique username.
func (s *ProfileService) GetByUsername(username string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, storeError("load profile", err)
	}
	return &user, nil
}

// ListAll returns every profile with its role set, newest first. Admin only.
func (s *ProfileService) ListAll(callerID uint) ([]ProfileWithRoles, error) {
	if err := s.identity.requireAdmin(callerID); err != nil {
		return nil, err
	}

	var users []db.User
	if err := s.db.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, storeError("list profiles", err)
	}

	var rows []db.UserRole
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, storeError("list roles", err)
	}

	rolesByUser := make(map[uint][]db.Role, len(rows))
	for _, row := range rows {
		rolesByUser[row.UserID] = append(rolesByUser[row.UserID], row.Role)
	}

	profiles := make([]ProfileWithRoles, 0, len(users))
	for _, user := range users {
		roles := rolesByUser[user.ID]
		if roles == nil {
			roles = []db.Role{}
		}
		profiles = append(profiles, ProfileWithRoles{User: user, Roles: roles})
	}
	return profiles, nil
}

// Update applies profile changes. Caller must be the profile owner or admin.
func (s *ProfileService) Update(callerID, userID uint, update ProfileUpdate) (*db.User, error) {
	if callerID == 0 {
		return nil, ErrAuthRequired
	}

	if callerID != userID {
		isAdmin, err := s.identity.IsAdmin(callerID)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, ErrPermissionDenied
		}
	}

	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		username := trimmed(update.Username)
		if err := checkUsername(username); err != nil {
			return nil, err
		}
		if username != user.Username {
			var count int64
			if err := s.db.Model(&db.User{}).Where("username = ? AND id <> ?", username, userID).Count(&count).Error; err != nil {
				return nil, storeError("check username", err)
			}
			if count > 0 {
				return nil, ErrUsernameTaken
			}
		}
		user.Username = username
	}
	if update.FullName != nil {
		user.FullName = trimmed(update.FullName)
	}
	if update.Bio != nil {
		user.Bio = trimmed(update.Bio)
	}
	if update.AvatarURL != nil {
		avatarURL := trimmed(update.AvatarURL)
		if err := checkAvatarURL(avatarURL); err != nil {
			return nil, err
		}
		user.AvatarURL = avatarURL
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, storeError("update profile", err)
	}
	return user, nil
}

// Delete removes a profile and everything it owns: comments on the user's
// posts, the user's own comments, tag junctions, posts and role rows, all in
// one transaction. Admin only; irreversible.
func (s *ProfileService) Delete(callerID, userID uint) error {
	if err := s.identity.requireAdmin(callerID); err != nil {
		return err
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return storeError("load profile", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var postIDs []uint
		if err := tx.Model(&db.Post{}).Where("author_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return storeError("delete profile", err)
		}

		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&db.Comment{}).Error; err != nil {
				return storeError("delete profile", err)
			}
			if err := tx.Exec("DELETE FROM post_tags WHERE post_id IN ?", postIDs).Error; err != nil {
				return storeError("delete profile", err)
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&db.Post{}).Error; err != nil {
				return storeError("delete profile", err)
			}
		}

		var commentIDs []uint
		if err := tx.Model(&db.Comment{}).Where("author_id = ?", userID).Pluck("id", &commentIDs).Error; err != nil {
			return storeError("delete profile", err)
		}
		if len(commentIDs) > 0 {
			// replies hanging off the user's top-level comments go too
			if err := tx.Where("parent_id IN ?", commentIDs).Delete(&db.Comment{}).Error; err != nil {
				return storeError("delete profile", err)
			}
			if err := tx.Where("id IN ?", commentIDs).Delete(&db.Comment{}).Error; err != nil {
				return storeError("delete profile", err)
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&db.UserRole{}).Error; err != nil {
			return storeError("delete profile", err)
		}
		if err := tx.Delete(&db.User{}, userID).Error; err != nil {
			return storeError("delete profile", err)
		}
		return nil
	})
}
