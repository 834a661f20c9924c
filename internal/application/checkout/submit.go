package checkout

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/rs/zerolog"
)

// SubmitRequest holds the input for submitting a purchase.
type SubmitRequest struct {
	AccountRef string
	ProductID  string
	Quantity   int
}

// SubmitResponse holds the result of an admitted purchase.
type SubmitResponse struct {
	TransactionID string
	Amount        int64
}

// Options tunes the saga's behavior per execution context.
type Options struct {
	// SkipVerification bypasses the account verifier entirely. Set from
	// configuration, consulted once per Submit call.
	SkipVerification bool

	// Retention is the advisory expiresAt horizon stamped on new
	// transactions.
	Retention time.Duration
}

// Orchestrator drives the purchase saga: atomic stock reservation,
// account verification, downstream trigger invocation, and the
// compensating stock release on post-reservation failure. It holds no
// in-process locks; concurrent submissions serialize at the store's
// conditional transaction.
type Orchestrator struct {
	store    LedgerStore
	verifier AccountVerifier
	trigger  DownstreamTrigger
	opts     Options
	logger   zerolog.Logger
}

// NewOrchestrator creates a new purchase saga orchestrator.
func NewOrchestrator(
	store LedgerStore,
	verifier AccountVerifier,
	trigger DownstreamTrigger,
	opts Options,
	logger zerolog.Logger,
) *Orchestrator {
	if opts.Retention <= 0 {
		opts.Retention = 24 * time.Hour
	}
	return &Orchestrator{
		store:    store,
		verifier: verifier,
		trigger:  trigger,
		opts:     opts,
		logger:   logger,
	}
}

// Submit executes the purchase saga. On success the transaction is left
// pending; its terminal status is written later by the downstream
// workflow's callback path. Any failure after the stock reservation
// transitions the transaction to failed and releases the stock.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	// 1. Validate input before any store access.
	if err := validateRequest(req); err != nil {
		return nil, errors.NewSagaError(errors.CodeInvalidRequest, "invalid purchase request", err)
	}

	// 2. Load the product; absence is not a store fault.
	prod, err := o.store.GetProduct(ctx, req.ProductID)
	if err != nil {
		if stderrors.Is(err, errors.ErrProductNotFound) {
			return nil, errors.NewSagaError(errors.CodeProductNotFound, "product "+req.ProductID+" not found", err)
		}
		return nil, errors.NewSagaError(errors.CodeStoreError, "load product", err)
	}

	// 3. Build the pending transaction. Amount is computed exactly once.
	tx, err := transaction.New(req.AccountRef, req.ProductID, req.Quantity, prod.AmountFor(req.Quantity), o.opts.Retention)
	if err != nil {
		return nil, errors.NewSagaError(errors.CodeInvalidRequest, "build transaction", err)
	}

	// 4. Atomic reservation: stock decrement + transaction insert commit
	// together or not at all. A precondition failure leaves no partial
	// effects; no retry at this layer.
	if err := o.store.ReserveAndCreate(ctx, tx); err != nil {
		if stderrors.Is(err, errors.ErrStockNotEnough) {
			return nil, errors.NewSagaError(errors.CodeStockNotEnough,
				fmt.Sprintf("reserve %d units of %s", req.Quantity, req.ProductID), err)
		}
		return nil, errors.NewSagaError(errors.CodeStoreError, "reserve stock", err)
	}

	// 5. Verify the purchaser, unless configured to skip. The verifier
	// bounds its own timeout; a timeout compensates like an explicit
	// rejection.
	if !o.opts.SkipVerification {
		if err := o.verifier.Verify(ctx, req.AccountRef); err != nil {
			o.compensate(ctx, tx, errors.FailureInvalidAccount)
			return nil, errors.NewSagaError(errors.CodeAccountVerificationFailed, "verify account "+req.AccountRef, err)
		}
	}

	// 6. Hand off to the downstream workflow. Blocks on acceptance only.
	inv := Invocation{TransactionID: tx.ID, AccountRef: tx.AccountRef, Amount: tx.Amount}
	if err := o.trigger.Invoke(ctx, inv); err != nil {
		o.compensate(ctx, tx, errors.FailureDownstreamTrigger)
		return nil, errors.NewSagaError(errors.CodeDownstreamTriggerError, "invoke downstream workflow", err)
	}

	return &SubmitResponse{TransactionID: tx.ID, Amount: tx.Amount}, nil
}

// compensate drives a reserved transaction to its terminal failed state
// and releases the stock. The status write happens before the release;
// a release that never lands leaves stock_released unset, which the
// reconciliation sweep picks up.
func (o *Orchestrator) compensate(ctx context.Context, tx *transaction.Transaction, failureCode string) {
	if err := o.store.UpdateStatus(ctx, tx.ID, transaction.StatusFailed, failureCode); err != nil {
		o.logger.Error().Err(err).
			Str("transaction_id", tx.ID).
			Str("failure_code", failureCode).
			Msg("failed to write terminal status, stock still reserved")
		return
	}
	if err := o.store.ReleaseStock(ctx, tx.ID, tx.ProductID, tx.Quantity); err != nil {
		o.logger.Error().Err(err).
			Str("transaction_id", tx.ID).
			Str("product_id", tx.ProductID).
			Int("quantity", tx.Quantity).
			Msg("stock release failed, transaction left for reconciliation")
	}
}

func validateRequest(req SubmitRequest) error {
	if req.AccountRef == "" {
		return errors.NewValidationError("account_ref", "cannot be empty")
	}
	if req.ProductID == "" {
		return errors.NewValidationError("product_id", "cannot be empty")
	}
	if req.Quantity <= 0 {
		return errors.NewValidationError("quantity", "must be greater than 0")
	}
	return nil
}
