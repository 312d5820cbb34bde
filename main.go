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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"example.com/food-ordering/internal/config"
	domcart "example.com/food-ordering/internal/domain/cart"
	domfood "example.com/food-ordering/internal/domain/food"
	domorder "example.com/food-ordering/internal/domain/order"
	"example.com/food-ordering/internal/infra/logging"
	"example.com/food-ordering/internal/infra/messaging"
	"example.com/food-ordering/internal/infra/payment/stripepay"
	"example.com/food-ordering/internal/infra/persistence/mysql"
	"example.com/food-ordering/internal/infra/persistence/postgres"
	"example.com/food-ordering/internal/infra/persistence/redisstore"
	"example.com/food-ordering/internal/infra/security"
	apihttp "example.com/food-ordering/internal/interface/http"
	authuc "example.com/food-ordering/internal/usecase/auth"
	cartuc "example.com/food-ordering/internal/usecase/cart"
	checkoutuc "example.com/food-ordering/internal/usecase/checkout"
	orderuc "example.com/food-ordering/internal/usecase/order"
)

type stores struct {
	orders  domorder.Repository
	carts   domcart.Repository
	catalog domfood.Catalog
	ping    func(ctx context.Context) error
	close   func()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()

	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		st.carts = redisstore.NewCartRepository(rdb)
		logger.Info("cart storage on redis")
	}

	var events domorder.EventPublisher = messaging.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		events = publisher
	}

	var catalog domfood.Catalog
	if cfg.CatalogPricing {
		catalog = st.catalog
	}

	tokens := security.NewJWTService(cfg.JWTSecret, cfg.JWTExpiration)
	gateway := stripepay.New(stripepay.Config{
		SecretKey: cfg.StripeSecretKey,
		Currency:  cfg.Currency,
	})

	api := apihttp.NewAPI(apihttp.Dependencies{
		AuthService: authuc.NewService(tokens),
		CartService: cartuc.NewService(st.carts),
		CheckoutService: checkoutuc.NewService(checkoutuc.Dependencies{
			Orders:  st.orders,
			Carts:   st.carts,
			Gateway: gateway,
			Catalog: catalog,
			Events:  events,
			Logger:  logger,
		}, checkoutuc.Config{
			FrontendURL: cfg.FrontendURL,
			DeliveryFee: cfg.DeliveryFee.Decimal,
		}),
		OrderService: orderuc.NewService(st.orders, events, logger),
		Logger:       logger,
		AdminKey:     cfg.AdminKey,
		HealthCheck:  st.ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting http server",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("catalog_pricing", cfg.CatalogPricing),
			zap.Bool("kafka", len(cfg.KafkaBrokers) > 0))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &stores{
			orders:  postgres.NewOrderRepository(pool),
			carts:   postgres.NewCartRepository(pool),
			catalog: postgres.NewFoodRepository(pool),
			ping:    pool.Ping,
			close:   pool.Close,
		}, nil
	default:
		db, err := mysql.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := mysql.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &stores{
			orders:  mysql.NewOrderRepository(db),
			carts:   mysql.NewCartRepository(db),
			catalog: mysql.NewFoodRepository(db),
			ping:    db.PingContext,
			close:   func() { _ = db.Close() },
		}, nil
	}
}
