package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lmdelacruz/evride-storefront/api/routes"
	"github.com/lmdelacruz/evride-storefront/internal/auth"
	"github.com/lmdelacruz/evride-storefront/internal/cart"
	"github.com/lmdelacruz/evride-storefront/internal/checkout"
	"github.com/lmdelacruz/evride-storefront/internal/orders"
	"github.com/lmdelacruz/evride-storefront/internal/products"
	"github.com/lmdelacruz/evride-storefront/pkg/commerce"
	"github.com/lmdelacruz/evride-storefront/pkg/config"
	"github.com/lmdelacruz/evride-storefront/pkg/env"
	"github.com/lmdelacruz/evride-storefront/pkg/eventbus"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
	"github.com/lmdelacruz/evride-storefront/pkg/metrics"
	"github.com/lmdelacruz/evride-storefront/pkg/redis"
	"github.com/lmdelacruz/evride-storefront/pkg/session"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)

	var redisClient *redis.Client
	var sessionStore *session.Store
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		sessionStore, err = session.NewStore(redisClient, cfg.Session.TTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create session store", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, session mirroring disabled")
	}

	bus := eventbus.New(16)

	api, err := commerce.NewClient(cfg.Upstream, session.ContextProvider{}, logg, upstreamMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build commerce client", err)
		os.Exit(1)
	}

	cartService, err := cart.NewClient(api, bus, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart client", err)
		os.Exit(1)
	}

	productService, err := products.NewClient(api, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build products client", err)
		os.Exit(1)
	}

	authService, err := auth.NewClient(api)
	if err != nil {
		logg.Error(context.Background(), "failed to build auth client", err)
		os.Exit(1)
	}

	orderCreator, err := orders.NewClient(api)
	if err != nil {
		logg.Error(context.Background(), "failed to build orders client", err)
		os.Exit(1)
	}

	ordersProxy, err := orders.NewProxy(api)
	if err != nil {
		logg.Error(context.Background(), "failed to build orders proxy", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		cartService,
		authService,
		orderCreator,
		bus,
		cfg.Pricing,
		cfg.Session,
		cfg.Checkout,
		logg,
		upstreamMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"upstream": cfg.Upstream.BaseURL,
	})
	logg.Info(ctx, "starting storefront gateway")

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisPinger,
			sessionStore,
			cartService,
			productService,
			checkoutService,
			ordersProxy,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}
