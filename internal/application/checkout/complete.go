package checkout

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/rs/zerolog"
)

// CompletePurchaseUseCase applies the terminal status reported by the
// payment provider's webhook: invoked → success, or invoked → failed
// with compensation. Replayed webhooks against a terminal transaction
// surface as an invalid transition, never as a second status write.
type CompletePurchaseUseCase struct {
	store  LedgerStore
	logger zerolog.Logger
}

// NewCompletePurchaseUseCase creates a new CompletePurchaseUseCase.
func NewCompletePurchaseUseCase(store LedgerStore, logger zerolog.Logger) *CompletePurchaseUseCase {
	return &CompletePurchaseUseCase{store: store, logger: logger}
}

// Succeed marks an invoked transaction successful.
func (uc *CompletePurchaseUseCase) Succeed(ctx context.Context, transactionID string) error {
	tx, err := uc.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if err := tx.MarkSuccess(); err != nil {
		return err
	}
	return uc.store.UpdateStatus(ctx, tx.ID, transaction.StatusSuccess, "")
}

// Decline marks an invoked transaction failed and releases its stock.
func (uc *CompletePurchaseUseCase) Decline(ctx context.Context, transactionID string) error {
	tx, err := uc.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if err := tx.MarkFailed(errors.FailurePaymentDeclined); err != nil {
		return err
	}
	if err := uc.store.UpdateStatus(ctx, tx.ID, transaction.StatusFailed, errors.FailurePaymentDeclined); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if err := uc.store.ReleaseStock(ctx, tx.ID, tx.ProductID, tx.Quantity); err != nil {
		uc.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg("stock release failed, left for reconciliation")
	}
	return nil
}

// IsConflict reports whether the error is a webhook replay against an
// already-terminal transaction.
func IsConflict(err error) bool {
	return stderrors.Is(err, errors.ErrInvalidStateTransition)
}
