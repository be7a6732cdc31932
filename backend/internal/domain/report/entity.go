/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 14:02:10
 * @FilePath: \inventory-app\backend\internal\domain\report\entity.go
 * @LastEditTime: 2025-10-23 11:47:36
 */
package report

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Type 表示报表事件的类别，取值为固定的封闭集合。
type Type string

const (
	TypeRecipeUsed           Type = "RECIPE_USED"
	TypeIngredientUsed       Type = "INGREDIENT_USED"
	TypeIngredientReachedLow Type = "TIMES_INGREDIENT_REACHED_LOW"
	TypeRecipesCreated       Type = "RECIPES_CREATED"
	TypeIngredientsCreated   Type = "INGREDIENTS_CREATED"
)

// ErrUnknownType 表示传入的报表类型不在已知集合内。
var ErrUnknownType = errors.New("unknown report type")

var allTypes = []Type{
	TypeRecipeUsed,
	TypeIngredientUsed,
	TypeIngredientReachedLow,
	TypeRecipesCreated,
	TypeIngredientsCreated,
}

// AllTypes 按声明顺序返回全部报表类型的副本。
func AllTypes() []Type {
	return append([]Type(nil), allTypes...)
}

// Valid 判断类型是否属于已知集合。
func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// ParseType 解析报表类型，大小写不敏感，允许用 - 或空格代替下划线。
func ParseType(raw string) (Type, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	candidate := Type(normalized)
	if !candidate.Valid() {
		return "", ErrUnknownType
	}
	return candidate, nil
}

// Report 映射 reports 表中的一条事件记录。
// 写入后不再修改，只会被批量清理删除。
type Report struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	ReportType Type      `gorm:"column:report_type;size:64;not null;index:idx_reports_type_ts,priority:1" json:"reportType"`
	EntityID   int64     `gorm:"column:entity_id" json:"entityId"`
	EntityName string    `gorm:"column:entity_name;size:255" json:"entityName"`
	Timestamp  time.Time `gorm:"column:occurred_at;not null;index:idx_reports_type_ts,priority:2;index:idx_reports_ts" json:"timestamp"`
	Count      int64     `gorm:"column:event_count;not null;default:1" json:"count"`
}

// TableName 返回事件表名称。
func (Report) TableName() string {
	return "reports"
}

// BeforeCreate 保证时间戳与计数总是有值，并拒绝未知类型入库。
// 时间统一以 UTC 落库，便于按字符串比较的驱动正确排序。
func (r *Report) BeforeCreate(_ *gorm.DB) error {
	if !r.ReportType.Valid() {
		return ErrUnknownType
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	r.Timestamp = r.Timestamp.UTC()
	if r.Count <= 0 {
		r.Count = 1
	}
	return nil
}

// New 构造一条当前时间的事件记录。
func New(reportType Type, entityID int64, entityName string) Report {
	return Report{
		ReportType: reportType,
		EntityID:   entityID,
		EntityName: entityName,
		Timestamp:  time.Now(),
		Count:      1,
	}
}
