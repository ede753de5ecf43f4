// Command fakeapi serves a seeded in-memory ordering API for development and
// manual testing of the qrorder client.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/howlrs/pos-qr-go/internal/config"
	"github.com/howlrs/pos-qr-go/internal/logging"
	"github.com/howlrs/pos-qr-go/internal/memstore"
	"github.com/howlrs/pos-qr-go/internal/router"
	"github.com/howlrs/pos-qr-go/internal/websockets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)

	store, err := memstore.NewSeeded(memstore.Options{
		SessionTTL: cfg.Server.SessionTTL,
		PublicURL:  cfg.Server.PublicURL,
		JWTSecret:  cfg.JWT.Secret,
		TokenTTL:   time.Duration(cfg.JWT.ExpiresIn) * time.Hour,
	})
	if err != nil {
		logger.Fatalf("Failed to seed store: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize WebSocket hub
	hub := websockets.NewHub(logger)
	go hub.Run(ctx)

	server := &http.Server{
		Addr: cfg.Server.Address,
		Handler: router.New(store, hub, router.Options{
			JWTSecret: cfg.JWT.Secret,
			Origins:   cfg.Server.CORSOrigins,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithFields(log.Fields{
			"address": cfg.Server.Address,
			"session": memstore.SeedSessionID,
		}).Info("Fake API starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	logger.Info("Server exited properly")
}
