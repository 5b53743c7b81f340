package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"

	"peerchat/api"
	"peerchat/auth"
	"peerchat/contract"
	"peerchat/gateway"
	"peerchat/moderation"
	"peerchat/observability"
	"peerchat/repositories"
	"peerchat/runtime"
	"peerchat/runtime/workers"
	"peerchat/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Returning the error instead of exiting keeps every defer (database close,
// socket teardown) on the path out.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Services
	chatRepository := repositories.NewChatRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db, log)

	resolver := services.NewChatResolver(chatRepository, log)
	messageLog := services.NewMessageLog(chatRepository, messageRepository, userRepository, log)
	if len(config.CensoredWords) > 0 {
		moderator, err := moderation.NewModerator(config.CensoredWords, config.ModerationCharReplacement, log)
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		messageLog = messageLog.WithModerator(&moderator)
	}
	listing := services.NewChatListing(chatRepository, messageRepository, userRepository, log)

	// 4. Metrics, Registry & Backplane
	registerer := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registerer)

	localRegistry := runtime.NewRegistry(log)
	observability.RegisterRoomGauges(registerer, localRegistry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fanout contract.IRegistry = localRegistry
	if config.NodeID != "" {
		backplane, err := runtime.NewBackplane(localRegistry, config.NodeID,
			config.BackplanePublish, config.BackplanePeers, log)
		if err != nil {
			return fmt.Errorf("backplane setup failed: %w", err)
		}
		backplane.WithCounters(metrics.BackplanePublished, metrics.BackplaneReplayed)
		defer backplane.Close()

		// A poll loop crash must not take realtime delivery down with it.
		sup := workers.NewSupervisor(log)
		go sup.Add(backplane).Run(ctx)
		defer sup.Stop()

		fanout = backplane
	}

	// 5. Gateway & HTTP Server
	authenticator := auth.NewAuthenticator(config.JWTSecret)
	gw := gateway.NewGateway(authenticator, fanout, resolver, messageLog, metrics,
		config.MessagesPerSecond, log)
	localRegistry.WithEvictor(gw)

	authService := services.NewAuthService(userRepository, authenticator, log)
	handler := api.NewChatHandler(resolver, messageLog, listing, userRepository, log)
	authHandler := api.NewAuthHandler(authService, log)
	router := api.NewRouter(handler, authHandler, gw.HandleWS, authenticator, registerer, log)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
