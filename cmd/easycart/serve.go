package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/easycart/internal/cache"
	"github.com/fjod/easycart/internal/cart"
	"github.com/fjod/easycart/internal/catalog"
	"github.com/fjod/easycart/internal/config"
	"github.com/fjod/easycart/internal/history"
	h "github.com/fjod/easycart/internal/http"
	"github.com/fjod/easycart/internal/payment"
	"github.com/fjod/easycart/internal/publisher"
	"github.com/fjod/easycart/internal/repository"
	"github.com/fjod/easycart/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// inProcessPayment as PAYMENT_SERVICE_ADDR runs the payment simulator inside this process.
const inProcessPayment = "inprocess"

var httpPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP API with its background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if httpPort != "" {
			cfg.HTTPPort = httpPort
		}
		return serve(cmd.Context(), cfg, newLogger(cfg))
	},
}

func init() {
	serveCmd.Flags().StringVar(&httpPort, "port", "", "HTTP listen port (overrides HTTP_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds := credentials(cfg)
	repo, err := repository.NewRepository(creds, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed", "driver", creds.Driver)

	cartCache, closeCache := newCartCache(ctx, cfg, log)
	defer closeCache()

	processor, closePayment, err := newPaymentProcessor(cfg, log)
	if err != nil {
		return err
	}
	defer closePayment()

	checkout := service.NewCheckoutService(
		repo,
		service.NewPaymentHandler(processor, cfg.PaymentTimeout),
		cartCache,
		service.Config{CommitAttempts: cfg.CommitAttempts},
		log,
	)
	catalogService := catalog.NewCatalogService(repo, log)
	cartService := cart.NewCartService(repo, cartCache, log)

	g, gctx := errgroup.WithContext(ctx)

	var projection history.Store
	if cfg.MongoURI != "" {
		db, err := history.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Warn("failed to disconnect from MongoDB", "error", err)
			}
		}()
		store := history.NewMongoStore(db)
		if err := store.CreateIndexes(ctx); err != nil {
			return err
		}
		projection = store

		if len(cfg.KafkaBrokers) > 0 {
			consumer := history.NewConsumer(store, history.NewKafkaReader(publisher.OrderEventsTopic, cfg.KafkaBrokers...), log)
			defer consumer.Close()
			g.Go(func() error {
				consumer.Run(gctx)
				return nil
			})
		}
	}

	var writer publisher.MessageWriter
	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter := publisher.NewKafkaWriter(cfg.KafkaBrokers...)
		defer func() {
			if err := kafkaWriter.Close(); err != nil {
				log.Warn("failed to close kafka writer", "error", err)
			}
		}()
		writer = kafkaWriter
	}
	poller := publisher.NewOutboxPoller(publisher.Config{
		EventInterval:    cfg.OutboxInterval,
		RecoveryInterval: cfg.RecoveryInterval,
		StuckAfter:       cfg.StuckSessionAfter,
	}, repo, writer, checkout, log)
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})

	router := h.NewRouter(h.Handlers{
		Products: h.NewProductHandler(catalogService, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(cartService, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkout),
		Orders:   h.NewOrdersHandler(history.NewOrderHistory(projection, repo, log), cfg.RequestTimeout),
		Users:    h.NewUserHandler(catalogService, cfg.RequestTimeout),
		DB:       repo,
	}, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.Info("easycart API starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}

// commitAttemptAllowance covers one commit transaction plus the backoff before the next.
const commitAttemptAllowance = 5 * time.Second

// writeTimeout leaves room for the slowest checkout: the charge, every commit attempt and the
// refund. The checkout handler also lifts its own deadline.
func writeTimeout(cfg *config.Config) time.Duration {
	checkout := 2*cfg.PaymentTimeout + time.Duration(max(cfg.CommitAttempts, 1))*commitAttemptAllowance
	return max(cfg.RequestTimeout, checkout) + 5*time.Second
}

func newCartCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.CartCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NopCache{}, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		// carts are still served from the database while Redis is down
		log.Warn("redis unavailable, cart cache degraded", "addr", cfg.RedisAddr, "error", err)
	}
	return cache.NewRedisCache(client), func() { _ = client.Close() }
}

func newPaymentProcessor(cfg *config.Config, log *slog.Logger) (payment.Processor, func(), error) {
	if cfg.PaymentServiceAddr == inProcessPayment {
		log.Info("using in-process payment simulator")
		return payment.NewSimulator(payment.RandomStatus{}, log), func() {}, nil
	}

	conn, err := payment.Dial(cfg.PaymentServiceAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to payment service: %w", err)
	}
	log.Info("payment service client created", "addr", cfg.PaymentServiceAddr)

	processor := payment.NewBreakerProcessor(payment.NewClient(conn), payment.DefaultBreakerSettings(), log)
	return processor, func() { _ = conn.Close() }, nil
}
