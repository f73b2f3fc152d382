package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/buildkart/api/internal/catalog"
	"github.com/buildkart/api/internal/handlers"
	"github.com/buildkart/api/internal/platform/config"
	"github.com/buildkart/api/internal/platform/metrics"
	"github.com/buildkart/api/internal/platform/observability"
	"github.com/buildkart/api/internal/repositories/jsonfile"
	"github.com/buildkart/api/internal/repositories/memory"
	"github.com/buildkart/api/internal/services"
)

func main() {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	seed, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.Int("products", len(seed.Products)),
		zap.Int("orders", len(seed.Orders)),
	)

	orders := memory.NewOrderRepository(seed.Orders)
	products := memory.NewProductRepository(seed.Products)
	subscriptionStore := jsonfile.NewSubscriptionStore(cfg.Storage.SubscriptionsDir)

	pricingEngine, err := services.NewPricingEngine(services.PricingEngineDeps{
		Config: services.PricingConfig{
			Currency:              cfg.Pricing.Currency,
			TaxRateBps:            cfg.Pricing.TaxRateBps,
			FreeDeliveryThreshold: cfg.Pricing.FreeDeliveryThresholdPaise,
			DeliveryFee:           cfg.Pricing.DeliveryFeePaise,
			Tiers:                 pricingTiers(cfg.Pricing.Tiers),
		},
		Logger: observability.ServiceLogger(logger.Named("pricing")),
	})
	if err != nil {
		logger.Fatal("failed to initialise pricing engine", zap.Error(err))
	}

	invoiceService, err := services.NewInvoiceService(services.InvoiceServiceDeps{
		Orders:   orders,
		Pricing:  pricingEngine,
		Business: businessProfile(cfg.Business),
		Logger:   observability.ServiceLogger(logger.Named("invoice")),
	})
	if err != nil {
		logger.Fatal("failed to initialise invoice service", zap.Error(err))
	}

	timelineService, err := services.NewTimelineService(services.TimelineServiceDeps{
		Orders:   orders,
		LeadDays: leadDayTable(cfg.Timeline.LeadTimeDays),
		Logger:   observability.ServiceLogger(logger.Named("timeline")),
	})
	if err != nil {
		logger.Fatal("failed to initialise timeline service", zap.Error(err))
	}

	stockService, err := services.NewStockService(services.StockServiceDeps{
		Products: products,
		Store:    subscriptionStore,
		Logger:   observability.ServiceLogger(logger.Named("stock")),
	})
	if err != nil {
		logger.Fatal("failed to initialise stock service", zap.Error(err))
	}

	comparisonService, err := services.NewComparisonService(services.ComparisonServiceDeps{
		Products: products,
		Logger:   observability.ServiceLogger(logger.Named("comparison")),
	})
	if err != nil {
		logger.Fatal("failed to initialise comparison service", zap.Error(err))
	}

	metrics.Init()

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		metrics.Middleware(),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthVersion(buildVersion()),
		handlers.WithReadinessCheck("subscription_store", func() error {
			_, err := subscriptionStore.Load(context.Background())
			return err
		}),
	)

	orderHandlers := handlers.NewOrderHandlers(handlers.OrderHandlersDeps{
		Invoices:          invoiceService,
		Timeline:          timelineService,
		Pricing:           pricingEngine,
		Orders:            orders,
		EnablePDFInvoices: cfg.Features.EnablePDFInvoices,
		EnableShareLinks:  cfg.Features.EnableShareLinks,
	})

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithMetricsHandler(metrics.Handler()),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithStockRoutes(handlers.NewStockHandlers(stockService).Routes),
		handlers.WithCompareRoutes(handlers.NewCompareHandlers(comparisonService).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("buildkart api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func pricingTiers(tiers []config.DiscountTier) []services.DiscountTier {
	out := make([]services.DiscountTier, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, services.DiscountTier{MinQuantity: tier.MinQuantity, RateBps: tier.RateBps})
	}
	return out
}

func businessProfile(b config.BusinessConfig) services.BusinessProfile {
	return services.BusinessProfile{
		Name:       b.Name,
		GSTIN:      b.GSTIN,
		Line1:      b.Line1,
		Line2:      b.Line2,
		City:       b.City,
		State:      b.State,
		PostalCode: b.PostalCode,
		Phone:      b.Phone,
		Email:      b.Email,
	}
}

// leadDayTable scales the built-in decreasing lead table to the configured
// full lead time; stages from "shipped" on always sit at a single day.
func leadDayTable(fullLeadDays int) []int {
	table := []int{7, 5, 3, 1, 1}
	if fullLeadDays > 0 {
		table[0] = fullLeadDays
		for i := 1; i < len(table); i++ {
			if table[i] > table[i-1] {
				table[i] = table[i-1]
			}
		}
	}
	return table
}

func buildVersion() string {
	if v := strings.TrimSpace(os.Getenv("API_BUILD_VERSION")); v != "" {
		return v
	}
	return "dev"
}
