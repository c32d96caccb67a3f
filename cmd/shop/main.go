package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MiniShop/internal/config"
	"MiniShop/internal/shop"
	"MiniShop/pkg/kit"
)

func main() {
	service := "shop"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	tp, err := kit.NewTracerProvider(ctx, service, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("init tracing failed", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	fixture, err := loadFixture(cfg.FixturePath)
	if err != nil {
		log.Fatal("load fixture failed", zap.Error(err), zap.String("path", cfg.FixturePath))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := shop.NewMemStore(fixture)
	svc := shop.NewService(store,
		shop.WithLatency(cfg.Latency),
		shop.WithLogger(log),
		shop.WithMetrics(shop.NewMetrics(reg)),
	)

	s := &shop.Server{Service: svc, Log: log}
	if cfg.AddLimitPerMin > 0 {
		s.AddLimit = kit.NewIPRateLimiter(cfg.AddLimitPerMin, time.Minute)
		s.AddLimit.TrustForwardedFor = cfg.TrustProxy
	}

	h := shop.NewHandler(s, shop.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})

	log.Info("store seeded",
		zap.Int("categories", len(fixture.Categories)),
		zap.Int("products", len(fixture.Products)),
		zap.Int("cart_lines", len(fixture.Cart)),
		zap.Duration("latency", cfg.Latency),
	)

	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func loadFixture(path string) (shop.Fixture, error) {
	if path == "" {
		return shop.DefaultFixture()
	}
	return shop.LoadFixtureFile(path)
}
