// Command stockapi serves the inventory and catalog routes used by the cart
// engine from an in-memory seed.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikolayk812/cartstate/internal/config"
	"github.com/nikolayk812/cartstate/internal/fakeapi"
	"github.com/nikolayk812/cartstate/internal/logger"
	"go.uber.org/zap"
)

//go:embed seed.json
var defaultSeed []byte

func main() {
	os.Exit(start())
}

// start returns the process exit code so deferred log flushing runs before exit.
func start() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config.Load: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Options{Service: "stockapi", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger.New: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("stockapi stopped", zap.Error(err))
		return 1
	}

	return 0
}

func run(cfg config.Config, log *zap.Logger) error {
	seed, err := loadSeed(cfg.StockSeedFile)
	if err != nil {
		return fmt.Errorf("loadSeed: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           fakeapi.New(seed, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("stockapi listening",
			zap.String("addr", srv.Addr),
			zap.Int("products", len(seed.Products)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("srv.ListenAndServe: %w", err)
	case <-quit:
	}

	log.Info("shutting down stockapi")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	return nil
}

func loadSeed(path string) (fakeapi.Seed, error) {
	if path == "" {
		return fakeapi.ReadSeed(bytes.NewReader(defaultSeed))
	}

	f, err := os.Open(path)
	if err != nil {
		return fakeapi.Seed{}, fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	return fakeapi.ReadSeed(f)
}
