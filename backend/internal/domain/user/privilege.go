package user

import (
	"errors"
	"strings"
)

// Privilege 枚举员工可被授予的八种操作权限。
type Privilege string

const (
	PrivilegeCreateRecipe     Privilege = "CREATE_RECIPE"
	PrivilegeReadRecipe       Privilege = "READ_RECIPE"
	PrivilegeUpdateRecipe     Privilege = "UPDATE_RECIPE"
	PrivilegeDeleteRecipe     Privilege = "DELETE_RECIPE"
	PrivilegeCreateIngredient Privilege = "CREATE_INGREDIENT"
	PrivilegeReadIngredient   Privilege = "READ_INGREDIENT"
	PrivilegeUpdateIngredient Privilege = "UPDATE_INGREDIENT"
	PrivilegeDeleteIngredient Privilege = "DELETE_INGREDIENT"
)

// ErrUnknownPrivilege 表示权限名称无法识别。
var ErrUnknownPrivilege = errors.New("unknown privilege")

// AllPrivileges 返回全部权限，顺序固定。
func AllPrivileges() []Privilege {
	return []Privilege{
		PrivilegeCreateRecipe, PrivilegeReadRecipe, PrivilegeUpdateRecipe, PrivilegeDeleteRecipe,
		PrivilegeCreateIngredient, PrivilegeReadIngredient, PrivilegeUpdateIngredient, PrivilegeDeleteIngredient,
	}
}

// ParsePrivilege 解析权限名称，大小写不敏感。
func ParsePrivilege(raw string) (Privilege, error) {
	candidate := Privilege(strings.ToUpper(strings.TrimSpace(raw)))
	for _, p := range AllPrivileges() {
		if p == candidate {
			return p, nil
		}
	}
	return "", ErrUnknownPrivilege
}

// PrivilegeSet 以独立布尔列的形式嵌入 users 表。
type PrivilegeSet struct {
	CanCreateIngredient bool `gorm:"column:can_create_ingredient;not null;default:false" json:"canCreateIngredient"`
	CanReadIngredient   bool `gorm:"column:can_read_ingredient;not null;default:false" json:"canReadIngredient"`
	CanUpdateIngredient bool `gorm:"column:can_update_ingredient;not null;default:false" json:"canUpdateIngredient"`
	CanDeleteIngredient bool `gorm:"column:can_delete_ingredient;not null;default:false" json:"canDeleteIngredient"`
	CanCreateRecipe     bool `gorm:"column:can_create_recipe;not null;default:false" json:"canCreateRecipe"`
	CanReadRecipe       bool `gorm:"column:can_read_recipe;not null;default:false" json:"canReadRecipe"`
	CanUpdateRecipe     bool `gorm:"column:can_update_recipe;not null;default:false" json:"canUpdateRecipe"`
	CanDeleteRecipe     bool `gorm:"column:can_delete_recipe;not null;default:false" json:"canDeleteRecipe"`
}

// DefaultStaffPrivileges 新员工默认可读原料、可读菜谱、可更新原料。
func DefaultStaffPrivileges() PrivilegeSet {
	return PrivilegeSet{
		CanReadIngredient:   true,
		CanReadRecipe:       true,
		CanUpdateIngredient: true,
	}
}

// FullPrivileges 返回全部开启的权限集合。
func FullPrivileges() PrivilegeSet {
	var set PrivilegeSet
	for _, p := range AllPrivileges() {
		*set.flag(p) = true
	}
	return set
}

// Has 判断集合中是否开启了指定权限。
func (s PrivilegeSet) Has(p Privilege) bool {
	flag := s.flag(p)
	return flag != nil && *flag
}

// Granted 返回已开启的权限列表。
func (s PrivilegeSet) Granted() []Privilege {
	out := make([]Privilege, 0, 8)
	for _, p := range AllPrivileges() {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *PrivilegeSet) flag(p Privilege) *bool {
	switch p {
	case PrivilegeCreateRecipe:
		return &s.CanCreateRecipe
	case PrivilegeReadRecipe:
		return &s.CanReadRecipe
	case PrivilegeUpdateRecipe:
		return &s.CanUpdateRecipe
	case PrivilegeDeleteRecipe:
		return &s.CanDeleteRecipe
	case PrivilegeCreateIngredient:
		return &s.CanCreateIngredient
	case PrivilegeReadIngredient:
		return &s.CanReadIngredient
	case PrivilegeUpdateIngredient:
		return &s.CanUpdateIngredient
	case PrivilegeDeleteIngredient:
		return &s.CanDeleteIngredient
	default:
		return nil
	}
}

// TogglePrivileges 由管理员翻转目标员工的权限。
// 仅当 actor 为 ADMIN、目标为 STAFF 且其 StaffID 与 targetStaffID 一致时生效；
// 同一权限出现两次会被翻转两次。返回是否发生了修改。
func TogglePrivileges(actor Role, target *User, targetStaffID string, privileges []Privilege) bool {
	if actor != RoleAdmin || target == nil || target.Role != RoleStaff {
		return false
	}
	if target.StaffIDValue() == "" || target.StaffIDValue() != targetStaffID {
		return false
	}

	changed := false
	for _, p := range privileges {
		flag := target.Privileges.flag(p)
		if flag == nil {
			continue
		}
		*flag = !*flag
		changed = true
	}
	return changed
}
