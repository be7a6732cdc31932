package ingredient

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitCacheSharesUnits(t *testing.T) {
	cache := NewUnitCache()
	a := cache.Get(decimal.RequireFromString("2.5"), "kg")
	b := cache.Get(decimal.RequireFromString("2.50"), " kg ")
	c := cache.Get(decimal.RequireFromString("2.5"), "lb")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, "price-2.50-unit-kg", UnitKey(a.PricePerUnit, a.UnitOfMeasurement))
}

func TestUnitCacheConcurrentAccess(t *testing.T) {
	cache := NewUnitCache()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cache.Get(decimal.NewFromInt(int64(n%4)), "g")
		}(i)
	}
	wg.Wait()
	require.Equal(t, 4, cache.Len())
}

func TestSetQuantityCountsLowCrossings(t *testing.T) {
	item := Ingredient{Quantity: Quantity{CurrentQuantity: 20, AlertLowQuantity: 5}}

	assert.False(t, item.SetQuantity(10))
	assert.True(t, item.SetQuantity(5))
	assert.False(t, item.SetQuantity(3), "already low, no new crossing")
	assert.False(t, item.SetQuantity(30))
	assert.True(t, item.SetQuantity(1))
	assert.EqualValues(t, 2, item.Quantity.TimesReachedLow)
}

func TestConsume(t *testing.T) {
	item := Ingredient{Quantity: Quantity{CurrentQuantity: 8, AlertLowQuantity: 2}}

	_, err := item.Consume(9)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 8.0, item.Quantity.CurrentQuantity)

	_, err = item.Consume(-1)
	assert.ErrorIs(t, err, ErrNegativeQuantity)

	crossed, err := item.Consume(6)
	require.NoError(t, err)
	assert.True(t, crossed)
	assert.Equal(t, 2.0, item.Quantity.CurrentQuantity)
}
