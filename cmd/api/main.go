package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pontodigital/pdv-backend/api/routes"
	"github.com/pontodigital/pdv-backend/internal/checkout"
	"github.com/pontodigital/pdv-backend/internal/postsale"
	"github.com/pontodigital/pdv-backend/internal/products"
	"github.com/pontodigital/pdv-backend/internal/scanner"
	"github.com/pontodigital/pdv-backend/internal/storecredit"
	"github.com/pontodigital/pdv-backend/pkg/config"
	"github.com/pontodigital/pdv-backend/pkg/db"
	"github.com/pontodigital/pdv-backend/pkg/fiscal"
	"github.com/pontodigital/pdv-backend/pkg/logger"
	"github.com/pontodigital/pdv-backend/pkg/metrics"
	"github.com/pontodigital/pdv-backend/pkg/migrate"
	"github.com/pontodigital/pdv-backend/pkg/printing"
	"github.com/pontodigital/pdv-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.Features.UseSQLite, logg)
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

	fiscalClient, err := fiscal.NewClient(cfg.Fiscal, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create fiscal client", err)
		os.Exit(1)
	}

	printClient, err := printing.NewClient(cfg.Printing, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create printing client", err)
		os.Exit(1)
	}

	metricsRegistry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(metricsRegistry)

	productService, err := products.NewService(products.ServiceParams{
		Repo: products.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	creditService, err := storecredit.NewService(storecredit.ServiceParams{
		Repo:   storecredit.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create store credit service", err)
		os.Exit(1)
	}

	scannerService, err := scanner.NewService(scanner.ServiceParams{
		Catalog:    productService,
		Logger:     logg,
		Metrics:    checkoutMetrics,
		Thresholds: scanner.ThresholdsFromConfig(cfg.Scanner),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scanner service", err)
		os.Exit(1)
	}

	postSaleService, err := postsale.NewService(postsale.ServiceParams{
		Printer:   printClient,
		Reprinter: fiscalClient,
		Logger:    logg,
		Metrics:   checkoutMetrics,
		Registry:  postsale.NewRegistry(0),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create post-sale service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Fiscal:          fiscalClient,
		Credit:          creditService,
		Workflow:        postSaleService,
		Logger:          logg,
		Metrics:         checkoutMetrics,
		MaxInstallments: cfg.Company.MaxInstallments,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			metricsRegistry,
			checkoutService,
			scannerService,
			postSaleService,
			creditService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
