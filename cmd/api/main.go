package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexylabs/nexyshop-backend/api/routes"
	"github.com/nexylabs/nexyshop-backend/internal/auth"
	"github.com/nexylabs/nexyshop-backend/internal/catalog"
	"github.com/nexylabs/nexyshop-backend/internal/checkout"
	"github.com/nexylabs/nexyshop-backend/internal/inventory"
	"github.com/nexylabs/nexyshop-backend/internal/messages"
	"github.com/nexylabs/nexyshop-backend/internal/orders"
	"github.com/nexylabs/nexyshop-backend/internal/payments"
	"github.com/nexylabs/nexyshop-backend/internal/users"
	stripewebhook "github.com/nexylabs/nexyshop-backend/internal/webhooks/stripe"
	"github.com/nexylabs/nexyshop-backend/pkg/auth/session"
	"github.com/nexylabs/nexyshop-backend/pkg/config"
	"github.com/nexylabs/nexyshop-backend/pkg/crypto"
	"github.com/nexylabs/nexyshop-backend/pkg/db"
	"github.com/nexylabs/nexyshop-backend/pkg/logger"
	"github.com/nexylabs/nexyshop-backend/pkg/metrics"
	"github.com/nexylabs/nexyshop-backend/pkg/migrate"
	"github.com/nexylabs/nexyshop-backend/pkg/redis"
	"github.com/nexylabs/nexyshop-backend/pkg/stripe"
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	encryptor, err := crypto.NewEncryptor(cfg.Codes.EncryptionKey)
	if err != nil {
		logg.Error(context.Background(), "failed to load code encryption key", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	inventoryRepo := inventory.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	messagesRepo := messages.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventoryRepo, encryptor, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	allocator, err := inventory.NewAllocator(inventoryRepo, encryptor, fulfillmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create code allocator", err)
		os.Exit(1)
	}

	messagesService, err := messages.NewService(messagesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create messages service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, allocator, encryptor, messagesService, fulfillmentMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(ordersRepo, catalogRepo, paymentsRepo, dbClient, stripeClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo:        ordersRepo,
		PaymentsRepo:      paymentsRepo,
		Fulfiller:         ordersService,
		TransactionRunner: dbClient,
		Metrics:           fulfillmentMetrics,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		SessionChecker: sessionManager,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		AuthService:      authService,
		CatalogService:   catalogService,
		CheckoutService:  checkoutService,
		OrdersService:    ordersService,
		MessagesService:  messagesService,
		InventoryService: inventoryService,

		StripeClient:   stripeClient,
		WebhookService: webhookService,
		WebhookGuard:   stripewebhook.NewEventGuard(redisClient),
	})

	// Reconciliation sweep for orders that paid but never got a code,
	// e.g. a crash between the payment tx and fulfillment.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			retried, err := ordersService.RetryStuck(context.Background(), 10*time.Minute)
			if err != nil {
				logg.Error(context.Background(), "stuck order sweep failed", err)
				continue
			}
			if retried > 0 {
				ctx := logg.WithFields(context.Background(), map[string]any{"retried": retried})
				logg.Info(ctx, "stuck orders fulfilled")
			}
		}
	}()

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
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
