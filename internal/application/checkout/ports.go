package checkout

import (
	"context"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/product"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
)

// LedgerStore is the durable store holding products and transactions.
// ReserveAndCreate must be atomic: the stock decrement and the
// transaction insert commit together or not at all, and an insufficient
// stock precondition surfaces as errors.ErrStockNotEnough, distinct
// from generic store faults.
type LedgerStore interface {
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	GetTransaction(ctx context.Context, id string) (*transaction.Transaction, error)

	// ReserveAndCreate atomically decrements the product's stock by
	// tx.Quantity (conditioned on stock >= tx.Quantity) and inserts tx.
	ReserveAndCreate(ctx context.Context, tx *transaction.Transaction) error

	// UpdateStatus writes a status transition. failureCode is persisted
	// only for the failed status; pass "" otherwise.
	UpdateStatus(ctx context.Context, transactionID string, status transaction.Status, failureCode string) error

	// ReleaseStock adds quantity back to the product's stock and marks
	// the owning transaction's release as confirmed, atomically.
	ReleaseStock(ctx context.Context, transactionID, productID string, quantity int) error

	// ListUnreleasedFailed returns failed transactions whose stock
	// release was never confirmed, failed before the given cutoff.
	ListUnreleasedFailed(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error)
}

// AccountVerifier confirms a purchaser identity against the external
// account system. Invalid accounts and timeouts both surface as typed
// errors; the caller treats them identically for compensation.
type AccountVerifier interface {
	Verify(ctx context.Context, accountRef string) error
}

// Invocation is the payload handed to the downstream workflow engine.
type Invocation struct {
	TransactionID string
	AccountRef    string
	Amount        int64
}

// DownstreamTrigger hands an admitted transaction to the downstream
// workflow engine. The call blocks only until the invocation is
// accepted, never until the workflow completes.
type DownstreamTrigger interface {
	Invoke(ctx context.Context, inv Invocation) error
}

// PaymentProvider creates payment intents downstream of the trigger.
// Used by the worker, not by Submit.
type PaymentProvider interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error)
}

// IntentRequest describes the payment to start at the provider.
type IntentRequest struct {
	TransactionID string
	AccountRef    string
	Amount        int64
}

// IntentResult is the provider's acknowledgment of a created intent.
type IntentResult struct {
	IntentID string
}
