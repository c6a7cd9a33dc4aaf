package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/commercemesh/order-service/api/controllers"
	"github.com/commercemesh/order-service/api/routes"
	"github.com/commercemesh/order-service/internal/compensation"
	"github.com/commercemesh/order-service/internal/federation"
	"github.com/commercemesh/order-service/internal/orders"
	"github.com/commercemesh/order-service/internal/projection"
	"github.com/commercemesh/order-service/pkg/broker"
	"github.com/commercemesh/order-service/pkg/config"
	"github.com/commercemesh/order-service/pkg/db"
	"github.com/commercemesh/order-service/pkg/logger"
	"github.com/commercemesh/order-service/pkg/metrics"
	"github.com/commercemesh/order-service/pkg/migrate"
	"github.com/commercemesh/order-service/pkg/outbox"
	pkgredis "github.com/commercemesh/order-service/pkg/redis"
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

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	brokerClient := broker.New(cfg.Broker)

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	projectionRepo := projection.NewRepository(dbClient.DB())
	projectionSvc, err := projection.NewService(projectionRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create projection service", err)
		os.Exit(1)
	}

	federationClient, err := federation.NewClient(brokerClient, cfg.Broker)
	if err != nil {
		logg.Error(context.Background(), "failed to create federation client", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(ordersRepo, projectionRepo, federationClient, dbClient, outboxSvc, cfg.Orders.PendingTimeout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	compensationSvc, err := compensation.NewService(compensation.NewRepository(dbClient.DB()), ordersRepo, dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create compensation service", err)
		os.Exit(1)
	}

	eventMetrics := metrics.NewEventMetrics(prometheus.DefaultRegisterer)
	events, err := controllers.NewEventHandler(projectionSvc, compensationSvc, logg, eventMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create event handler", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, brokerClient, redisClient, ordersSvc, events),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
