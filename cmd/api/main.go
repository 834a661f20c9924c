package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/checkout/internal/application/checkout"
	"github.com/cassiomorais/checkout/internal/bootstrap"
	"github.com/cassiomorais/checkout/internal/controller"
	infraRedis "github.com/cassiomorais/checkout/internal/infrastructure/redis"
	"github.com/cassiomorais/checkout/internal/repository/postgres"
	"github.com/cassiomorais/checkout/internal/trigger"
	"github.com/cassiomorais/checkout/internal/verifier"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "checkout-api", "checkout")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Store and collaborators ---
	store := postgres.NewLedgerStore(app.Pool)
	accountVerifier := verifier.NewClient(&app.Config.Verifier, app.Logger)
	streamProducer := infraRedis.NewStreamProducer(app.Redis)
	downstreamTrigger := trigger.NewStreamTrigger(streamProducer, app.Logger)

	// --- Application services ---
	orchestrator := checkout.NewOrchestrator(store, accountVerifier, downstreamTrigger, checkout.Options{
		SkipVerification: app.Config.Checkout.SkipVerification,
		Retention:        app.Config.Checkout.Retention,
	}, app.Logger)
	completer := checkout.NewCompletePurchaseUseCase(store, app.Logger)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:            app.Pool,
		RedisClient:     app.Redis,
		Orchestrator:    orchestrator,
		Completer:       completer,
		Store:           store,
		Metrics:         app.Metrics,
		CORSConfig:      app.Config.Server.CORS,
		RateLimitPerMin: app.Config.Server.RateLimitPerMin,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
