package db

import "time"

// Role 是附加在用户身上的能力等级，没有角色行即为普通读者
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// Valid reports whether the role is one of the assignable values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor
}

// UserRole 定义了用户角色表，一个用户最多持有一行
type UserRole struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Role      Role      `gorm:"not null" json:"role"`
}
