// Package main запускает HTTP-сервер сервиса заказа напитков.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/beverages-system/internal/broadcast"
	"github.com/mmeshcher/beverages-system/internal/config"
	"github.com/mmeshcher/beverages-system/internal/handler"
	"github.com/mmeshcher/beverages-system/internal/middleware"
	"github.com/mmeshcher/beverages-system/internal/notify"
	"github.com/mmeshcher/beverages-system/internal/repository"
	"github.com/mmeshcher/beverages-system/internal/service"
	"github.com/mmeshcher/beverages-system/internal/token"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	// Суммы в ответах API выводятся числами.
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := openRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}

	if cfg.JWTSecret == "" {
		sugar.Warn("JWT secret is not set, using a random one: tokens will not survive a restart")
	}
	tokens, err := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		sugar.Fatalw("token manager initialization error", "error", err.Error())
	}

	hub := broadcast.NewHub(logger)

	var (
		publisher broadcast.Publisher = hub
		relay     *broadcast.Relay
	)
	if cfg.RabbitMQURL != "" {
		relay, err = broadcast.DialRelay(cfg.RabbitMQURL, hub, logger)
		if err != nil {
			sugar.Fatalw("rabbitmq initialization error", "error", err.Error())
		}
		defer relay.Close()
		publisher = relay
	}

	var pusher service.Pusher
	if cfg.PushGatewayAddress != "" {
		pusher = notify.NewClient(cfg.PushGatewayAddress, logger)
	}

	svc := service.NewService(repo, tokens, broadcast.NewGateway(publisher, logger), pusher, logger)
	defer svc.Close()

	if cfg.SeedData {
		if err := svc.Seed(context.Background()); err != nil {
			sugar.Fatalw("seed error", "error", err.Error())
		}
	}

	h := handler.NewHandler(svc, hub, logger, middleware.NewAuthMiddleware(tokens, repo))

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая отправка уведомлений во внешний шлюз
	g.Go(func() error {
		svc.StartNotificationDispatch(ctx)
		return nil
	})

	if relay != nil {
		g.Go(func() error {
			return relay.Run(ctx)
		})
	}

	g.Go(func() error {
		sugar.Infow("starting beverages server", "addr", cfg.RunAddress)
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

		// Hijacked WebSocket-соединения Shutdown не закрывает.
		hub.Close()
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

// openRepository выбирает хранилище по строке подключения: пустая строка означает память.
func openRepository(uri string) (service.Repository, error) {
	switch {
	case uri == "":
		return repository.NewMemoryRepository(), nil
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return repository.NewMongoRepository(uri)
	default:
		return repository.NewPostgresRepository(uri)
	}
}
