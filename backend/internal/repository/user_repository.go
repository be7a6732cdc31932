/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-08 20:39:17
 * @FilePath: \inventory-app\backend\internal\repository\user_repository.go
 * @LastEditTime: 2025-10-25 20:11:40
 */
package repository

import (
	"context"
	"time"

	"inventory-app/backend/internal/domain/user"

	"gorm.io/gorm"
)

// UserRepository 封装用户相关的数据访问方法，基于 GORM 实现。
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储实例，接收共享的 *gorm.DB。
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 写入用户记录。
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// List 按主键升序返回全部用户。
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	var users []user.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

// FindByID 根据主键查找用户。
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername 通过用户名查找用户，若不存在返回 gorm.ErrRecordNotFound。
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// FindByStaffID 通过员工编号查找用户。
func (r *UserRepository) FindByStaffID(ctx context.Context, staffID string) (*user.User, error) {
	return r.findOne(ctx, "staff_id = ?", staffID)
}

// FindByAdminID 通过管理员编号查找用户。
func (r *UserRepository) FindByAdminID(ctx context.Context, adminID string) (*user.User, error) {
	return r.findOne(ctx, "admin_id = ?", adminID)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Count 返回用户总数。
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Count(&total).Error
	return total, err
}

// Update 按主键更新用户信息。
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// UpdatePrivileges 只写回权限列。
func (r *UserRepository) UpdatePrivileges(ctx context.Context, u *user.User) error {
	result := r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"can_create_ingredient": u.Privileges.CanCreateIngredient,
			"can_read_ingredient":   u.Privileges.CanReadIngredient,
			"can_update_ingredient": u.Privileges.CanUpdateIngredient,
			"can_delete_ingredient": u.Privileges.CanDeleteIngredient,
			"can_create_recipe":     u.Privileges.CanCreateRecipe,
			"can_read_recipe":       u.Privileges.CanReadRecipe,
			"can_update_recipe":     u.Privileges.CanUpdateRecipe,
			"can_delete_recipe":     u.Privileges.CanDeleteRecipe,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastLogin 记录最近一次登录时间。
func (r *UserRepository) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// Delete 按主键删除用户。
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&user.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAll 清空用户表，供重新生成演示数据使用。
func (r *UserRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&user.User{})
	return result.RowsAffected, result.Error
}
