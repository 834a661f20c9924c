package checkout

import (
	"context"
	"fmt"

	"github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/rs/zerolog"
)

// InvokePaymentUseCase is the worker-side half of the saga: it picks up
// admitted transactions from the workflow stream, starts the payment at
// the provider, and transitions pending → invoked. A provider error is
// a post-reservation failure and compensates like any other.
type InvokePaymentUseCase struct {
	store    LedgerStore
	provider PaymentProvider
	logger   zerolog.Logger
}

// NewInvokePaymentUseCase creates a new InvokePaymentUseCase.
func NewInvokePaymentUseCase(store LedgerStore, provider PaymentProvider, logger zerolog.Logger) *InvokePaymentUseCase {
	return &InvokePaymentUseCase{store: store, provider: provider, logger: logger}
}

// Execute starts the payment for a single transaction. Transactions
// already past pending are skipped, which makes redelivered stream
// messages harmless.
func (uc *InvokePaymentUseCase) Execute(ctx context.Context, transactionID string) error {
	tx, err := uc.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if tx.Status != transaction.StatusPending {
		uc.logger.Debug().
			Str("transaction_id", tx.ID).
			Str("status", string(tx.Status)).
			Msg("skipping transaction not in pending state")
		return nil
	}

	result, err := uc.provider.CreateIntent(ctx, IntentRequest{
		TransactionID: tx.ID,
		AccountRef:    tx.AccountRef,
		Amount:        tx.Amount,
	})
	if err != nil {
		uc.failAndRelease(ctx, tx, errors.FailurePaymentInvokeError)
		return fmt.Errorf("create payment intent: %w", err)
	}

	if err := uc.store.UpdateStatus(ctx, tx.ID, transaction.StatusInvoked, ""); err != nil {
		return fmt.Errorf("mark invoked: %w", err)
	}

	uc.logger.Info().
		Str("transaction_id", tx.ID).
		Str("intent_id", result.IntentID).
		Str("provider", uc.provider.Name()).
		Msg("payment intent created")
	return nil
}

func (uc *InvokePaymentUseCase) failAndRelease(ctx context.Context, tx *transaction.Transaction, failureCode string) {
	if err := uc.store.UpdateStatus(ctx, tx.ID, transaction.StatusFailed, failureCode); err != nil {
		uc.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg("failed to write terminal status")
		return
	}
	if err := uc.store.ReleaseStock(ctx, tx.ID, tx.ProductID, tx.Quantity); err != nil {
		uc.logger.Error().Err(err).Str("transaction_id", tx.ID).Msg("stock release failed, left for reconciliation")
	}
}
