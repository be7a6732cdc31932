package ingredient

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// UnitCache 按 "price-<price>-unit-<unit>" 复用 Unit 值对象，可并发使用。
type UnitCache struct {
	mu    sync.RWMutex
	units map[string]Unit
}

// NewUnitCache 创建空缓存。
func NewUnitCache() *UnitCache {
	return &UnitCache{units: make(map[string]Unit)}
}

// UnitKey 生成缓存键，价格统一保留两位小数。
func UnitKey(price decimal.Decimal, unit string) string {
	return "price-" + price.StringFixed(2) + "-unit-" + strings.TrimSpace(unit)
}

// Get 返回共享的 Unit，不存在时创建并缓存。
func (c *UnitCache) Get(price decimal.Decimal, unit string) Unit {
	key := UnitKey(price, unit)

	c.mu.RLock()
	cached, ok := c.units[key]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok = c.units[key]; ok {
		return cached
	}
	created := Unit{
		PricePerUnit:      price.Round(2),
		UnitOfMeasurement: strings.TrimSpace(unit),
	}
	c.units[key] = created
	return created
}

// Len 返回已缓存的单位数量。
func (c *UnitCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}
