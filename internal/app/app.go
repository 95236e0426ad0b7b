package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lasertag/server"
	servernet "lasertag/server/internal/net"
)

// Run wires the registry, match clock, and HTTP surface together and serves
// until the listener fails or ctx is cancelled.
func Run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	registry := server.NewRegistry(cfg, logger)
	clock := server.NewClock(registry, logger)

	stop := make(chan struct{})
	go clock.Run(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(registry, servernet.HTTPHandlerConfig{Logger: logger})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	logger.Info("server listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
