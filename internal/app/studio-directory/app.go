// Package studiodirectory собирает HTTP-приложение каталога студий:
// хранилище, миграции, кеш, брокер, платёжный провайдер и сервисы.
package studiodirectory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/studio-directory/internal/cache"
	"github.com/magabrotheeeer/studio-directory/internal/config"
	"github.com/magabrotheeeer/studio-directory/internal/lib/jwt"
	"github.com/magabrotheeeer/studio-directory/internal/migrations"
	"github.com/magabrotheeeer/studio-directory/internal/paymentprovider"
	"github.com/magabrotheeeer/studio-directory/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/studio-directory/internal/services/auth"
	checkoutservice "github.com/magabrotheeeer/studio-directory/internal/services/checkout"
	notifyservice "github.com/magabrotheeeer/studio-directory/internal/services/notify"
	profileservice "github.com/magabrotheeeer/studio-directory/internal/services/profile"
	reconcileservice "github.com/magabrotheeeer/studio-directory/internal/services/reconcile"
	signupservice "github.com/magabrotheeeer/studio-directory/internal/services/signup"
	"github.com/magabrotheeeer/studio-directory/internal/storage"
)

// App — собранное HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New собирает приложение из конфигурации: подключает зависимости,
// применяет миграции и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.AmqpURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetServiceQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	providerClient := paymentprovider.NewClient(cfg.PaymentProvider.ShopID, cfg.PaymentProvider.SecretKey)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	notify := notifyservice.New(ch, logger)
	signup := signupservice.New(db, db, db, notify, cfg.Signup, logger)
	reconcile := reconcileservice.New(db, notify, cfg.Signup, logger)
	checkout := checkoutservice.New(db, providerClient, cfg.PaymentProvider, logger)
	auth := authservice.New(db, jwtMaker, logger)
	profile := profileservice.New(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Signup:    signup,
		Reconcile: reconcile,
		Checkout:  checkout,
		Auth:      auth,
		Profile:   profile,
	}, jwtMaker, cacheRedis, cfg)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		a.db.DB.Close()
		return err
	}
}
