/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 14:30:52
 * @FilePath: \inventory-app\backend\internal\domain\user\entity.go
 * @LastEditTime: 2025-10-25 20:03:18
 */
package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role 区分管理员与员工两类账号。
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// ErrUnknownRole 表示角色不是 ADMIN/STAFF。
var ErrUnknownRole = errors.New("unknown user role")

// ParseRole 解析角色字符串，大小写不敏感。
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleStaff:
		return RoleStaff, nil
	default:
		return "", ErrUnknownRole
	}
}

// User 是系统中唯一的用户实体，Role 决定 AdminID / StaffID 哪个有效。
type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"size:64;uniqueIndex" json:"userName"`
	PasswordHash string       `gorm:"size:255" json:"-"`
	Role         Role         `gorm:"size:16;index" json:"role"`
	AdminID      *string      `gorm:"size:36;uniqueIndex" json:"adminID,omitempty"` // 仅管理员持有
	StaffID      *string      `gorm:"size:36;uniqueIndex" json:"staffID,omitempty"` // 仅员工持有
	Privileges   PrivilegeSet `gorm:"embedded" json:"privilege"`
	LastLoginAt  *time.Time   `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time    `json:"dateAdded"`
	UpdatedAt    time.Time    `json:"dateUpdated"`
}

// NewUser 按角色构造用户：管理员获得 AdminID 与全部权限，员工获得 StaffID 与默认权限。
func NewUser(username, passwordHash string, role Role) (*User, error) {
	u := &User{
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		Role:         role,
	}
	id := uuid.NewString()
	switch role {
	case RoleAdmin:
		u.AdminID = &id
		u.Privileges = FullPrivileges()
	case RoleStaff:
		u.StaffID = &id
		u.Privileges = DefaultStaffPrivileges()
	default:
		return nil, ErrUnknownRole
	}
	return u, nil
}

// IsAdmin 判断是否为管理员。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Can 判断用户是否拥有指定权限，管理员恒为 true。
func (u *User) Can(p Privilege) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	return u.Privileges.Has(p)
}

// StaffIDValue 返回 StaffID 的值，不存在时为空串。
func (u *User) StaffIDValue() string {
	if u == nil || u.StaffID == nil {
		return ""
	}
	return *u.StaffID
}

// AdminIDValue 返回 AdminID 的值，不存在时为空串。
func (u *User) AdminIDValue() string {
	if u == nil || u.AdminID == nil {
		return ""
	}
	return *u.AdminID
}
