package testutil

import (
	"time"

	"github.com/cassiomorais/checkout/internal/domain/product"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
)

func NewTestProduct(id string, price int64, stock int) *product.Product {
	now := time.Now()
	return &product.Product{
		ID:        id,
		Name:      "Test Product " + id,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewTestTransaction(accountRef, productID string, quantity int, price int64) *transaction.Transaction {
	tx, err := transaction.New(accountRef, productID, quantity, price*int64(quantity), 24*time.Hour)
	if err != nil {
		panic(err)
	}
	return tx
}

func NewFailedTransaction(accountRef, productID string, quantity int, price int64, failureCode string) *transaction.Transaction {
	tx := NewTestTransaction(accountRef, productID, quantity, price)
	if err := tx.MarkFailed(failureCode); err != nil {
		panic(err)
	}
	return tx
}
