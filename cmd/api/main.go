package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/branches"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/contact"
	"github.com/angelmondragon/storefront-backend/internal/deliveryareas"
	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	closers = append(closers, dbClient)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		closers = append(closers, redisClient)
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and rate limits disabled")
	}

	var (
		uploader media.Uploader
		storage  controllers.Pinger
	)
	if cfg.GCS.Enabled() {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return fmt.Errorf("bootstrap gcs: %w", err)
		}
		closers = append(closers, gcsClient)
		uploader, storage = gcsClient, gcsClient
	} else {
		logg.Warn(ctx, "gcs bucket not configured; image upload disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if redisClient != nil {
		registry.MustRegister(metrics.NewRedisPoolCollector(redisClient.PoolStats))
	}
	httpMetrics := metrics.NewHTTPMetrics(registry)
	storeMetrics := metrics.NewStorefrontMetrics(registry)

	deps, err := buildServices(cfg, logg, dbClient, redisClient, uploader, storeMetrics)
	if err != nil {
		return err
	}
	deps.DB = dbClient
	deps.Storage = storage
	deps.Redis = redisClient
	deps.Registry = registry
	deps.HTTPMetrics = httpMetrics

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-serveErr
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, uploader media.Uploader, storeMetrics *metrics.StorefrontMetrics) (routes.Deps, error) {
	conn := dbClient.DB()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), catalog.Options{
		LookupTTL:       cfg.Catalog.LookupCacheTTL,
		CleanupInterval: cfg.Catalog.CleanupInterval,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("catalog service: %w", err)
	}

	persisters := cart.MemoryProvider(cfg.Cart.TTL)
	if cfg.Cart.UsesRedis() {
		if redisClient == nil {
			return routes.Deps{}, fmt.Errorf("%s=%s requires redis", config.EnvCartDriver, cfg.Cart.Driver)
		}
		persisters = cart.RedisProvider(redisClient, cfg.Cart.TTL)
	}
	cartSvc, err := cart.NewService(persisters, logg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("cart service: %w", err)
	}

	numbers, err := checkout.NewNumberGenerator(cfg.Checkout.OrderNumberSalt)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("order numbers: %w", err)
	}
	checkoutSvc, err := checkout.NewService(checkout.NewRepository(conn), dbClient, numbers, storeMetrics, logg, checkout.Options{
		UseTransaction: cfg.Checkout.UseTransaction,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("checkout service: %w", err)
	}

	ordersSvc, err := orders.NewService(orders.NewRepository(conn), orders.Brand{
		Name:     cfg.Storefront.BrandName,
		Currency: cfg.Storefront.CurrencyLabel,
	}, logg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("orders service: %w", err)
	}

	stockSvc, err := stock.NewService(stock.NewRepository(conn), storeMetrics, logg, stock.Options{})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("stock service: %w", err)
	}

	branchSvc, err := branches.NewService(branches.NewRepository(conn), catalogSvc, logg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("branches service: %w", err)
	}

	productSvc, err := product.NewService(product.NewRepository(conn), dbClient, catalogSvc, logg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("products service: %w", err)
	}

	areaSvc, err := deliveryareas.NewService(conn)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("delivery areas service: %w", err)
	}

	mediaSvc, err := media.NewService(uploader, productSvc, storeMetrics, cfg.Media.MaxUploadBytes(), logg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("media service: %w", err)
	}

	contactSvc, err := contact.NewService(contact.NewSMTPSender(cfg.SMTP), contact.Options{
		From:  cfg.SMTP.From,
		To:    cfg.SMTP.To,
		Brand: cfg.Storefront.BrandName,
	}, storeMetrics, logg)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("contact service: %w", err)
	}

	return routes.Deps{
		Catalog:       catalogSvc,
		Carts:         cartSvc,
		Checkout:      checkoutSvc,
		Orders:        ordersSvc,
		Stock:         stockSvc,
		Branches:      branchSvc,
		Products:      productSvc,
		DeliveryAreas: areaSvc,
		Media:         mediaSvc,
		Contact:       contactSvc,
	}, nil
}
