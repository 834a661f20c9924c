package product

import (
	"time"

	"github.com/cassiomorais/checkout/internal/domain/errors"
)

// Product is a purchasable item with a stock counter. Stock is mutated
// only through the ledger store's atomic reservation and release
// operations, never written directly by callers.
type Product struct {
	ID        string
	Name      string
	Price     int64 // minor currency unit
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks invariants that must hold for any stored product.
func (p *Product) Validate() error {
	if p.ID == "" {
		return errors.NewValidationError("product_id", "cannot be empty")
	}
	if p.Price <= 0 {
		return errors.NewValidationError("price", "must be greater than 0")
	}
	if p.Stock < 0 {
		return errors.NewValidationError("stock", "cannot be negative")
	}
	return nil
}

// AmountFor returns the purchase amount for the given quantity,
// computed once at transaction creation and never recomputed.
func (p *Product) AmountFor(quantity int) int64 {
	return p.Price * int64(quantity)
}
