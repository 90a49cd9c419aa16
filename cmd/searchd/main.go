package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/searchlab/postsearch/internal/cache"
	"github.com/searchlab/postsearch/internal/engine"
	"github.com/searchlab/postsearch/internal/server"
	"github.com/searchlab/postsearch/internal/tokenizer"
	"github.com/searchlab/postsearch/pkg/config"
	"github.com/searchlab/postsearch/pkg/health"
	"github.com/searchlab/postsearch/pkg/kafka"
	"github.com/searchlab/postsearch/pkg/logger"
	"github.com/searchlab/postsearch/pkg/metrics"
	"github.com/searchlab/postsearch/pkg/middleware"
	pkgredis "github.com/searchlab/postsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	eng := engine.New(tokenizer.Normalize, cfg.Index.BuildWorkers, cfg.Search.DefaultTopK)
	indexPath := cfg.Index.Path()
	if err := eng.LoadFrom(indexPath); err != nil {
		// Serve anyway: the index may not have been built yet, and the
		// publish notification will load it when it lands.
		slog.Warn("no index loaded at startup", "path", indexPath, "error", err)
	} else if m != nil {
		idx := eng.Current()
		m.IndexDocuments.Set(float64(idx.N))
		m.IndexTerms.Set(float64(idx.TermCount()))
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	// Hot-reload on publish notifications from the builder.
	reloadHandler := func(ctx context.Context, key, value []byte) error {
		event, err := kafka.DecodeJSON[engine.PublishedEvent](value)
		if err != nil {
			return err
		}
		if err := eng.LoadFrom(event.IndexPath); err != nil {
			return err
		}
		slog.Info("index reloaded",
			"path", event.IndexPath,
			"documents", event.Documents,
			"built_at", event.BuiltAt,
		)
		if m != nil {
			m.IndexDocuments.Set(float64(event.Documents))
			m.IndexTerms.Set(float64(event.Terms))
		}
		if queryCache != nil {
			if err := queryCache.Invalidate(ctx); err != nil {
				slog.Error("cache invalidation after reload failed", "error", err)
			}
		}
		return nil
	}
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexPublished, reloadHandler)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("index-published consumer error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		idx := eng.Current()
		if idx == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no index loaded"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", idx.N, idx.TermCount()),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := server.New(eng, queryCache, m, cfg.Search.DefaultTopK, cfg.Search.MaxResults)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
