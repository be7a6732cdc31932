package ingredient

import "errors"

var (
	// ErrNegativeQuantity 表示库存或扣减量为负数。
	ErrNegativeQuantity = errors.New("ingredient quantity must not be negative")
	// ErrInsufficientStock 表示库存不足以完成扣减。
	ErrInsufficientStock = errors.New("insufficient ingredient stock")
)
