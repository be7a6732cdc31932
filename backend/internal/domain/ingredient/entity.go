/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-21 09:12:44
 * @FilePath: \inventory-app\backend\internal\domain\ingredient\entity.go
 * @LastEditTime: 2025-10-24 16:40:02
 */
package ingredient

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quantity 描述原料的库存数量与告警阈值。
type Quantity struct {
	CurrentQuantity  float64 `gorm:"column:current_quantity;not null;default:0" json:"currentQuantity"`
	MaxQuantityLimit float64 `gorm:"column:max_quantity_limit;not null;default:0" json:"maxQuantityLimit"`
	AlertLowQuantity float64 `gorm:"column:alert_low_quantity;not null;default:0" json:"alertLowQuantity"`
	TimesReachedLow  int64   `gorm:"column:times_reached_low;not null;default:0" json:"timesReachedLow"`
}

// Unit 是单价与计量单位组成的不可变值对象，经 UnitCache 共享。
type Unit struct {
	PricePerUnit      decimal.Decimal `gorm:"column:price_per_unit;type:decimal(10,2)" json:"pricePerUnit"`
	UnitOfMeasurement string          `gorm:"column:unit_of_measurement;size:32" json:"unitOfMeasurement"`
}

// Ingredient 映射 ingredients 表。
type Ingredient struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id"`
	ProductName string    `gorm:"column:product_name;size:255;not null;uniqueIndex" json:"productName"`
	Quantity    Quantity  `gorm:"embedded" json:"quantityDetails"`
	Unit        Unit      `gorm:"embedded" json:"unitDetails"`
	DateAdded   time.Time `gorm:"column:date_added;autoCreateTime" json:"dateAdded"`
	DateUpdated time.Time `gorm:"column:date_updated;autoUpdateTime" json:"dateUpdated"`
}

// TableName 返回原料表名称。
func (Ingredient) TableName() string {
	return "ingredients"
}

// BeforeSave 阻止负库存写入。
func (i *Ingredient) BeforeSave(_ *gorm.DB) error {
	if i.Quantity.CurrentQuantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// IsLow 判断当前库存是否处于告警线及以下。
func (i *Ingredient) IsLow() bool {
	return i.Quantity.CurrentQuantity <= i.Quantity.AlertLowQuantity
}

// SetQuantity 写入新库存；若由告警线之上跌至告警线及以下，TimesReachedLow 加一并返回 true。
func (i *Ingredient) SetQuantity(next float64) bool {
	wasLow := i.IsLow()
	i.Quantity.CurrentQuantity = next
	if !wasLow && i.IsLow() {
		i.Quantity.TimesReachedLow++
		return true
	}
	return false
}

// Consume 扣减库存，不足时返回 ErrInsufficientStock 且不做修改。
func (i *Ingredient) Consume(amount float64) (bool, error) {
	if amount < 0 {
		return false, ErrNegativeQuantity
	}
	if amount > i.Quantity.CurrentQuantity {
		return false, ErrInsufficientStock
	}
	return i.SetQuantity(i.Quantity.CurrentQuantity - amount), nil
}
