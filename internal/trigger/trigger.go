package trigger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cassiomorais/checkout/internal/application/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/infrastructure/redis"
)

// StreamTrigger hands admitted transactions to the worker by appending
// to the workflow stream. The append acknowledges acceptance only; the
// worker drives the payment from there.
type StreamTrigger struct {
	producer *redis.StreamProducer
	logger   zerolog.Logger
}

func NewStreamTrigger(producer *redis.StreamProducer, logger zerolog.Logger) *StreamTrigger {
	return &StreamTrigger{
		producer: producer,
		logger:   logger.With().Str("component", "trigger").Logger(),
	}
}

func (t *StreamTrigger) Invoke(ctx context.Context, inv checkout.Invocation) error {
	err := t.producer.PublishInvocation(ctx, inv.TransactionID, inv.AccountRef, inv.Amount)
	if err != nil {
		t.logger.Error().Err(err).
			Str("transaction_id", inv.TransactionID).
			Msg("failed to enqueue workflow invocation")
		return fmt.Errorf("%w: %w", domainErrors.ErrTriggerRejected, err)
	}

	t.logger.Debug().
		Str("transaction_id", inv.TransactionID).
		Int64("amount", inv.Amount).
		Msg("workflow invocation enqueued")
	return nil
}
