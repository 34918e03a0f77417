// Package main запускает HTTP-сервер витрины.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storefront/internal/config"
	"github.com/mmeshcher/storefront/internal/events"
	"github.com/mmeshcher/storefront/internal/handler"
	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/navigation"
	"github.com/mmeshcher/storefront/internal/orderapi"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/service"
)

const defaultSessionSecret = "storefront-secret"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	if cfg.OrderAPIAddress == "" {
		sugar.Warn("order API address is not set, remote operations will fail")
	}
	api := orderapi.NewClient(cfg.OrderAPIAddress)

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		conn, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			sugar.Fatalw("rabbitmq initialization error", "error", err.Error())
		}
		publisher = events.NewPublisher(conn)
	}

	svc := service.NewService(repo, api, publisher, logger)
	defer func() {
		if err := svc.Close(); err != nil {
			sugar.Errorw("close service", "error", err)
		}
	}()

	nav := navigation.NewNavigator(svc, svc, cfg.Brand, logger)

	secret := cfg.SessionSecret
	if secret == "" {
		sugar.Warn("session secret is not set, using the default one")
		secret = defaultSessionSecret
	}
	h := handler.NewHandler(nav, logger, middleware.NewSessionMiddleware(secret))

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Очистка простаивающих сессий
	g.Go(func() error {
		svc.StartMaintenance(ctx, cfg.SweepInterval, cfg.SessionTTL, nav)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting storefront server", "addr", cfg.RunAddress, "brand", cfg.Brand.Title)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
