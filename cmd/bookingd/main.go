package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
	"github.com/example/marketplace-booking/internal/availability"
	"github.com/example/marketplace-booking/internal/config"
	httptransport "github.com/example/marketplace-booking/internal/http"
	"github.com/example/marketplace-booking/internal/logging"
	"github.com/example/marketplace-booking/internal/marketplace"
	"github.com/example/marketplace-booking/internal/payment"
	"github.com/example/marketplace-booking/internal/persistence"
	"github.com/example/marketplace-booking/internal/persistence/redisstore"
	"github.com/example/marketplace-booking/internal/persistence/sqlite"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("failed to read .env file", zap.Error(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := newGateway(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise gateway", zap.Error(err))
		os.Exit(1)
	}
	defer gateway.close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           gateway.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", zap.Error(err))
		}
	}()

	logger.Info("booking gateway listening", zap.String("addr", server.Addr), zap.String("store", cfg.StoreDriver), zap.Bool("checkout", cfg.CheckoutEnabled()))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", zap.Error(err))
		os.Exit(1)
	}
}

// gateway is the wired HTTP surface plus the resources it owns.
type gateway struct {
	handler http.Handler
	closers []func() error
	logger  *zap.Logger
}

func (g *gateway) close() {
	for i := len(g.closers) - 1; i >= 0; i-- {
		if err := g.closers[i](); err != nil {
			g.logger.Error("failed to release resource", zap.Error(err))
		}
	}
}

func newGateway(ctx context.Context, cfg config.Config, logger *zap.Logger) (*gateway, error) {
	g := &gateway{logger: logger}

	inner, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	g.closers = append(g.closers, closeStore)

	store, err := persistence.NewSealedStore(inner, cfg.StoreSecret)
	if err != nil {
		g.close()
		return nil, fmt.Errorf("failed to seal store: %w", err)
	}

	sessionService := application.NewSessionServiceWithLogger(store, cfg.Profile, time.Now, logger)
	cartService := application.NewCartServiceWithLogger(store, cfg.Profile, uuid.NewString, logger)

	client := marketplace.NewClient(cfg.APIBaseURL,
		marketplace.WithTimeout(cfg.APITimeout),
		marketplace.WithTokenSource(sessionService.Token),
	)
	api := newMarketplaceAdapter(client)

	emptyDays := availability.EmptyDaysOpen
	if !cfg.EmptyDaysOpen {
		emptyDays = availability.EmptyDaysClosed
	}
	engine := availability.NewEngine(cfg.Location,
		availability.WithSlotMinutes(cfg.StartIntervalMinutes),
		availability.WithEmptyDaysPolicy(emptyDays),
	)

	bookingService := application.NewBookingServiceWithLogger(api, engine, cfg.EndIntervalMinutes, logger)
	requestService := application.NewRequestFlowService(api, engine, application.RequestFlowOptions{
		EndInterval: cfg.EndIntervalMinutes,
		TTL:         cfg.FlowTTL,
		MaxFlows:    cfg.MaxFlows,
		IDGenerator: uuid.NewString,
		Now:         time.Now,
		Logger:      logger,
	})

	var payments application.PaymentGateway
	if cfg.CheckoutEnabled() {
		stripeGateway, err := payment.NewStripeGateway(payment.Config{
			SecretKey:  cfg.StripeKey,
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
		}, logger)
		if err != nil {
			g.close()
			return nil, fmt.Errorf("failed to configure checkout: %w", err)
		}
		payments = stripeGateway
	}
	checkoutService := application.NewCheckoutService(sessionService, cartService, payments, cfg.Currency, logger)

	g.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Availability: httptransport.NewAvailabilityHandler(bookingService, cfg.Location, logger),
		Bookings:     httptransport.NewBookingHandler(bookingService, cfg.Location, logger),
		Requests:     httptransport.NewRequestFlowHandler(requestService, cfg.Location, logger),
		Session:      httptransport.NewSessionHandler(sessionService, logger),
		Cart:         httptransport.NewCartHandler(cartService, logger),
		Checkout:     httptransport.NewCheckoutHandler(checkoutService, logger),
		Sessions:     sessionService,
		Logger:       logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.CORS(cfg.CORSOrigins),
			httptransport.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
		},
	})
	return g, nil
}

func openStore(ctx context.Context, cfg config.Config) (persistence.KeyValueStore, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		store, err := redisstore.New(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		pool, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			_ = pool.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		return sqlite.NewKVStore(pool), pool.Close, nil
	}
}
