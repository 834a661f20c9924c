package checkout

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reconciler sweeps failed transactions whose stock release was never
// confirmed and releases them exactly once. A crash between the
// terminal status write and the release is the one anomaly that can
// produce such transactions.
type Reconciler struct {
	store  LedgerStore
	grace  time.Duration
	limit  int
	logger zerolog.Logger
}

// NewReconciler creates a reconciliation sweep. grace keeps the sweep
// from racing an in-flight compensation; limit bounds one pass.
func NewReconciler(store LedgerStore, grace time.Duration, limit int, logger zerolog.Logger) *Reconciler {
	if limit <= 0 {
		limit = 50
	}
	return &Reconciler{store: store, grace: grace, limit: limit, logger: logger}
}

// Run executes one sweep and returns the number of releases applied.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.grace)
	stale, err := r.store.ListUnreleasedFailed(ctx, cutoff, r.limit)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, tx := range stale {
		if !tx.NeedsCompensation() {
			continue
		}
		if err := r.store.ReleaseStock(ctx, tx.ID, tx.ProductID, tx.Quantity); err != nil {
			r.logger.Error().Err(err).
				Str("transaction_id", tx.ID).
				Msg("reconciler could not release stock, will retry next sweep")
			continue
		}
		r.logger.Warn().
			Str("transaction_id", tx.ID).
			Str("product_id", tx.ProductID).
			Int("quantity", tx.Quantity).
			Msg("reconciler released stock for failed transaction")
		released++
	}
	return released, nil
}
