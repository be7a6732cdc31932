package repository

import (
	"context"

	"inventory-app/backend/internal/domain/recipe"

	"gorm.io/gorm"
)

// RecipeRepository 封装菜谱及其使用记录的访问。
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository 创建菜谱仓储。
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// WithTx 返回绑定到事务的仓储副本。
func (r *RecipeRepository) WithTx(tx *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: tx}
}

// Create 写入菜谱，连同 UseHistory 一并保存。
func (r *RecipeRepository) Create(ctx context.Context, item *recipe.Recipe) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// List 返回全部菜谱并预加载使用记录。
func (r *RecipeRepository) List(ctx context.Context) ([]recipe.Recipe, error) {
	var items []recipe.Recipe
	err := r.db.WithContext(ctx).Preload("UseHistory").Order("id ASC").Find(&items).Error
	return items, err
}

// FindByID 根据主键查找菜谱。
func (r *RecipeRepository) FindByID(ctx context.Context, id uint) (*recipe.Recipe, error) {
	var item recipe.Recipe
	if err := r.db.WithContext(ctx).Preload("UseHistory").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByName 通过菜谱名查找。
func (r *RecipeRepository) FindByName(ctx context.Context, name string) (*recipe.Recipe, error) {
	var item recipe.Recipe
	err := r.db.WithContext(ctx).Preload("UseHistory").Where("recipe_name = ?", name).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Replace 覆盖菜谱字段，并用传入的 UseHistory 替换原有记录。
func (r *RecipeRepository) Replace(ctx context.Context, item *recipe.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", item.ID).Delete(&recipe.UseHistory{}).Error; err != nil {
			return err
		}
		for i := range item.UseHistory {
			item.UseHistory[i].ID = 0
			item.UseHistory[i].RecipeID = item.ID
		}
		history := item.UseHistory
		if err := tx.Omit("UseHistory").Save(item).Error; err != nil {
			return err
		}
		if len(history) == 0 {
			return nil
		}
		return tx.Create(&history).Error
	})
}

// RecordUse 更新使用次数并追加一条使用记录。
func (r *RecipeRepository) RecordUse(ctx context.Context, item *recipe.Recipe, entry *recipe.UseHistory) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&recipe.Recipe{}).Where("id = ?", item.ID).Update("use_count", item.UseCount).Error; err != nil {
		return err
	}
	return db.Create(entry).Error
}

// Delete 删除菜谱及其使用记录。
func (r *RecipeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&recipe.UseHistory{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&recipe.Recipe{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteAll 清空菜谱与使用记录。
func (r *RecipeRepository) DeleteAll(ctx context.Context) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&recipe.UseHistory{}).Error; err != nil {
			return err
		}
		result := global.Delete(&recipe.Recipe{})
		removed = result.RowsAffected
		return result.Error
	})
	return removed, err
}
