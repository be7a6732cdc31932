package repository

import (
	"context"

	"inventory-app/backend/internal/domain/ingredient"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientRepository 封装原料表的访问。
type IngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository 创建原料仓储。
func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// WithTx 返回绑定到事务的仓储副本。
func (r *IngredientRepository) WithTx(tx *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: tx}
}

// Create 写入原料。
func (r *IngredientRepository) Create(ctx context.Context, item *ingredient.Ingredient) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// List 按主键升序返回全部原料。
func (r *IngredientRepository) List(ctx context.Context) ([]ingredient.Ingredient, error) {
	var items []ingredient.Ingredient
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

// FindByID 根据主键查找原料。
func (r *IngredientRepository) FindByID(ctx context.Context, id uint) (*ingredient.Ingredient, error) {
	var item ingredient.Ingredient
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDForUpdate 在事务中加行锁读取原料，sqlite 会忽略该锁。
func (r *IngredientRepository) FindByIDForUpdate(ctx context.Context, id uint) (*ingredient.Ingredient, error) {
	var item ingredient.Ingredient
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByName 通过产品名称查找原料。
func (r *IngredientRepository) FindByName(ctx context.Context, name string) (*ingredient.Ingredient, error) {
	var item ingredient.Ingredient
	if err := r.db.WithContext(ctx).Where("product_name = ?", name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Update 保存原料全部字段。
func (r *IngredientRepository) Update(ctx context.Context, item *ingredient.Ingredient) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete 按主键删除原料。
func (r *IngredientRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&ingredient.Ingredient{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAll 清空原料表。
func (r *IngredientRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&ingredient.Ingredient{})
	return result.RowsAffected, result.Error
}
