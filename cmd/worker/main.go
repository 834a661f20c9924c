package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cassiomorais/checkout/internal/application/checkout"
	"github.com/cassiomorais/checkout/internal/bootstrap"
	infraRedis "github.com/cassiomorais/checkout/internal/infrastructure/redis"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/cassiomorais/checkout/internal/repository/postgres"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "checkout-worker", "checkout_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Store and collaborators ---
	store := postgres.NewLedgerStore(app.Pool)
	providerFactory := providers.NewFactory()
	provider, err := providerFactory.Get("stripe")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve provider: %v\n", err)
		os.Exit(1)
	}

	// --- Use cases ---
	invokeUC := checkout.NewInvokePaymentUseCase(store, provider, app.Logger)
	reconciler := checkout.NewReconciler(store, app.Config.Worker.ReconcileGrace, app.Config.Worker.ReconcileBatch, app.Logger)

	// --- Workflow stream consumer ---
	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.WorkflowStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.WorkflowStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	// Signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Payment invoker (reads from Redis Streams).
	g.Go(func() error {
		return runInvoker(gCtx, app.Logger, consumer, invokeUC, app)
	})

	// 2. Reconciliation sweep for failed transactions with unreleased stock.
	g.Go(func() error {
		return runReconciler(gCtx, app.Logger, reconciler, app, workerCfg.ReconcileInterval)
	})

	// 3. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

func runInvoker(
	ctx context.Context,
	logger zerolog.Logger,
	consumer *infraRedis.StreamConsumer,
	invokeUC *checkout.InvokePaymentUseCase,
	app *bootstrap.App,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				transactionID, _ := msg.Values["transaction_id"].(string)
				if transactionID == "" {
					logger.Error().Str("message_id", msg.ID).Msg("Missing transaction ID in stream message")
					consumer.Ack(ctx, msg.ID)
					continue
				}

				lock := infraRedis.NewDistributedLock(app.Redis, "transaction:"+transactionID, app.Config.Checkout.LockTTL)
				acquired, err := lock.Acquire(ctx)
				if err != nil || !acquired {
					logger.Warn().Str("transaction_id", transactionID).Msg("Could not acquire lock, skipping")
					continue
				}

				logger.Info().Str("transaction_id", transactionID).Msg("Invoking payment")

				start := time.Now()
				if err := invokeUC.Execute(ctx, transactionID); err != nil {
					logger.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to invoke payment")
					app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.WorkflowStream, "error").Inc()
				} else {
					app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.WorkflowStream, "success").Inc()
				}
				app.Metrics.WorkerProcessingDuration.WithLabelValues(infraRedis.WorkflowStream).Observe(time.Since(start).Seconds())

				lock.Release(ctx)
				consumer.Ack(ctx, msg.ID)
			}
		}
	}
}

func runReconciler(
	ctx context.Context,
	logger zerolog.Logger,
	reconciler *checkout.Reconciler,
	app *bootstrap.App,
	interval time.Duration,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		released, err := reconciler.Run(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Reconciliation sweep failed")
			continue
		}
		if released > 0 {
			app.Metrics.ReconcilerReleases.Add(float64(released))
		}
	}
}
