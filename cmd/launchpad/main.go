// Package main запускает HTTP-сервер сервиса лаунчпада.
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

	"github.com/mmeshcher/launchpad/internal/config"
	"github.com/mmeshcher/launchpad/internal/events"
	"github.com/mmeshcher/launchpad/internal/handler"
	"github.com/mmeshcher/launchpad/internal/middleware"
	"github.com/mmeshcher/launchpad/internal/oracle"
	"github.com/mmeshcher/launchpad/internal/repository"
	"github.com/mmeshcher/launchpad/internal/service"
)

// Цена старше этого возраста считается недоступной.
const priceMaxAge = 5 * time.Minute

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

	publisher := events.Multi{events.NewLogPublisher(logger)}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange, logger)
		if err != nil {
			sugar.Fatalw("event broker initialization error", "error", err.Error())
		}
		publisher = append(publisher, amqpPublisher)
	}

	prices := oracle.NewCache(priceMaxAge)

	svc := service.NewService(repo, prices, publisher, logger, service.WithFaucet(cfg.FaucetEnabled))
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Restore(ctx); err != nil {
		sugar.Fatalw("state restore error", "error", err.Error())
	}

	var refresher *oracle.Refresher
	if cfg.OracleAddress != "" {
		refresher = oracle.NewRefresher(oracle.NewClient(cfg.OracleAddress), prices, svc.PriceTokens, logger)
	} else {
		sugar.Warn("oracle address is not set, discount instruments are unavailable")
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Обновление цен оракула по расписанию
	if refresher != nil {
		g.Go(func() error {
			if err := refresher.Start(ctx, cfg.OracleRefresh); err != nil {
				return fmt.Errorf("price refresher error: %w", err)
			}
			<-ctx.Done()
			<-refresher.Stop().Done()
			sugar.Info("price refresher stopped")
			return nil
		})
	}

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting launchpad server", "addr", cfg.RunAddress)
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
