package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/fjod/storefront/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v76"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()

	if cfg.OTelEnabled {
		shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.OTelEndpoint,
			Environment: cfg.OTelEnvironment,
		})
		if err != nil {
			logger.Fatal("failed to set up tracing", zap.Error(err))
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(sctx); err != nil {
				logger.Warn("tracer shutdown", zap.Error(err))
			}
		}()
		logger.Info("tracing enabled", zap.String("endpoint", cfg.OTelEndpoint))
	}

	products, err := openCatalog(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer products.Close()

	repo, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open order store", zap.Error(err))
	}
	defer repo.Close()

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open event sink", zap.Error(err))
	}
	defer publisher.Close()

	svc := service.NewOrderService(repo, gateways(cfg, logger), publisher, logger, service.Options{
		PublicBaseURL: cfg.PublicBaseURL,
		Numbers:       domain.NewOrderNumberGenerator(),
	})

	router := h.NewRouter(h.RouterConfig{
		Logger:         logger,
		Catalog:        products,
		Orders:         svc,
		Payments:       svc,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodySize:    cfg.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront starting", zap.String("port", cfg.HTTPPort),
			zap.String("order_store", cfg.OrderStore), zap.String("event_sink", cfg.EventSink))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

func openCatalog(cfg *config.Config, logger *zap.Logger) (catalog.RepoInterface, error) {
	if cfg.CatalogDBPath == "" {
		logger.Info("serving built-in catalog")
		return catalog.Static{}, nil
	}

	repo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		_ = repo.Close()
		return nil, err
	}
	logger.Info("catalog opened", zap.String("path", cfg.CatalogDBPath))
	return repo, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.OrderRepository, error) {
	switch cfg.OrderStore {
	case config.StorePostgres:
		cred := &repository.Credentials{
			Host:              cfg.DB.Host,
			Port:              cfg.DB.Port,
			User:              cfg.DB.User,
			Password:          cfg.DB.Password,
			DBName:            cfg.DB.Name,
			SSLMode:           cfg.DB.SSLMode,
			MigrationsDirPath: cfg.MigrationsPath,
			MaxOpenConns:      cfg.DB.MaxOpenConns,
			MaxIdleConns:      cfg.DB.MaxIdleConns,
		}
		repo, err := repository.NewPostgresRepository(cred)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(cred); err != nil {
			_ = repo.Close()
			return nil, err
		}
		logger.Info("connected to postgres", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))
		return repo, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, err
		}
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		return repository.NewRedisRepository(client), nil

	case config.StoreMongo:
		db, err := repository.ConnectMongoDB(ctx, repository.MongoConfig{
			URI:         cfg.MongoURI,
			Database:    cfg.MongoDBName,
			MaxPoolSize: uint64(cfg.MongoMaxPool),
			MinPoolSize: uint64(cfg.MongoMinPool),
		})
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoRepository(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		logger.Info("connected to mongodb", zap.String("db", cfg.MongoDBName))
		return repo, nil

	default:
		logger.Warn("using in-memory order store; orders are lost on restart")
		return repository.NewMemoryRepository(), nil
	}
}

func openPublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	switch cfg.EventSink {
	case config.SinkKafka:
		logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...), nil
	case config.SinkRabbitMQ:
		return events.NewRabbitPublisher(cfg.RabbitMQURL, logger)
	default:
		return events.NewLogPublisher(logger), nil
	}
}

// gateways leaves a field nil when its provider has no credentials, which the
// service reports as "not configured".
func gateways(cfg *config.Config, logger *zap.Logger) service.Gateways {
	var gw service.Gateways
	traced := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	if cfg.StripeSecretKey != "" {
		backendCfg := &stripe.BackendConfig{HTTPClient: traced}
		gw.Intent = payment.NewIntentGateway(cfg.StripeSecretKey, cfg.StripeTimeout, &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
		})
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; payment intents disabled")
	}

	payflowly := payment.PayflowlyConfig{
		BaseURL: cfg.PayflowlyBaseURL,
		APIKey:  cfg.PayflowlyAPIKey,
		Timeout: cfg.PayflowlyTimeout,
	}
	if payflowly.Configured() {
		gw.Link = payment.NewLinkGateway(payflowly, traced)
	} else {
		logger.Warn("PAYFLOWLY_API_KEY not set; payment links disabled")
	}
	return gw
}
