/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-21 10:05:17
 * @FilePath: \inventory-app\backend\internal\domain\recipe\entity.go
 * @LastEditTime: 2025-10-24 17:22:50
 */
package recipe

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Component 表示菜谱中某个原料的用量。
type Component struct {
	IngredientID uint    `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
}

// UseHistory 记录菜谱的一次使用。
type UseHistory struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RecipeID uint      `gorm:"index;not null" json:"recipeId"`
	LastUsed time.Time `gorm:"column:last_used" json:"lastUsed"`
}

// TableName 返回使用记录表名称。
func (UseHistory) TableName() string {
	return "recipe_use_history"
}

// Recipe 映射 recipes 表，原料构成以 JSON 列存储。
type Recipe struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	RecipeName string         `gorm:"column:recipe_name;size:255;not null;uniqueIndex" json:"recipeName"`
	Components datatypes.JSON `gorm:"column:components" json:"recipeComponents"`
	UseCount   int64          `gorm:"column:use_count;not null;default:0" json:"useCount"`
	UseHistory []UseHistory   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"useHistory"`
	CreatedAt  time.Time      `json:"dateAdded"`
	UpdatedAt  time.Time      `json:"dateUpdated"`
}

// TableName 返回菜谱表名称。
func (Recipe) TableName() string {
	return "recipes"
}

// DecodeComponents 解析 Components 列；空值返回 nil。
func (r *Recipe) DecodeComponents() ([]Component, error) {
	if len(r.Components) == 0 {
		return nil, nil
	}
	var out []Component
	if err := json.Unmarshal(r.Components, &out); err != nil {
		return nil, fmt.Errorf("decode recipe components: %w", err)
	}
	return out, nil
}

// SetComponents 序列化并写入 Components 列。
func (r *Recipe) SetComponents(components []Component) error {
	if components == nil {
		components = []Component{}
	}
	raw, err := json.Marshal(components)
	if err != nil {
		return fmt.Errorf("encode recipe components: %w", err)
	}
	r.Components = datatypes.JSON(raw)
	return nil
}

// MarkUsed 使用次数加一并追加一条使用记录。
func (r *Recipe) MarkUsed(at time.Time) UseHistory {
	r.UseCount++
	entry := UseHistory{RecipeID: r.ID, LastUsed: at}
	r.UseHistory = append(r.UseHistory, entry)
	return entry
}
