package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arborhaus/arborhaus-backend/api/routes"
	"github.com/arborhaus/arborhaus-backend/internal/cart"
	"github.com/arborhaus/arborhaus-backend/internal/catalog"
	"github.com/arborhaus/arborhaus-backend/internal/checkout"
	"github.com/arborhaus/arborhaus-backend/internal/notify"
	"github.com/arborhaus/arborhaus-backend/internal/orders"
	"github.com/arborhaus/arborhaus-backend/internal/pricing"
	"github.com/arborhaus/arborhaus-backend/pkg/config"
	"github.com/arborhaus/arborhaus-backend/pkg/db"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
	"github.com/arborhaus/arborhaus-backend/pkg/metrics"
	"github.com/arborhaus/arborhaus-backend/pkg/migrate"
	"github.com/arborhaus/arborhaus-backend/pkg/redis"
)

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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	engine := metrics.NewEngineMetrics(registry)

	var dispatcher notify.Dispatcher
	if cfg.Notify.ProjectID != "" {
		dispatcher, err = notify.NewPubSubDispatcher(context.Background(), cfg.Notify)
		if err != nil {
			logg.Error(context.Background(), "failed to connect pubsub", err)
			os.Exit(1)
		}
	} else {
		dispatcher, err = notify.NewLogDispatcher(logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create log dispatcher", err)
			os.Exit(1)
		}
	}
	sender, err := notify.NewSender(dispatcher, logg, engine)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification sender", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	snapshots, err := catalog.NewSnapshotProvider(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot provider", err)
		os.Exit(1)
	}
	resolver, err := pricing.NewResolver(catalogRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create price resolver", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	reconciler, err := cart.NewReconciler(resolver, cartRepo, dbClient, logg, engine, cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart reconciler", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartRepo, reconciler, resolver)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, sender, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	transactor, err := checkout.NewTransactor(
		cartRepo,
		reconciler,
		snapshots,
		ordersRepo,
		catalogRepo,
		dbClient,
		sender,
		engine,
		logg,
		cfg.Checkout,
		cfg.Notify,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout transactor", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Registry:        registry,
			Snapshots:       snapshots,
			Resolver:        resolver,
			Stock:           catalogRepo,
			CatalogService:  catalogService,
			CartService:     cartService,
			CheckoutService: transactor,
			OrdersService:   ordersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
