package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/searchlab/postsearch/internal/codec"
	"github.com/searchlab/postsearch/internal/engine"
	"github.com/searchlab/postsearch/internal/store"
	"github.com/searchlab/postsearch/internal/tokenizer"
	"github.com/searchlab/postsearch/pkg/config"
	"github.com/searchlab/postsearch/pkg/kafka"
	"github.com/searchlab/postsearch/pkg/logger"
	"github.com/searchlab/postsearch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	sourceKind := flag.String("source", "postgres", "document source: postgres or file")
	inputPath := flag.String("input", "", "NDJSON input file (required for -source=file)")
	notify := flag.Bool("notify", true, "publish an index-published event to kafka")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var src store.Source
	switch *sourceKind {
	case "postgres":
		pg, err := store.NewPostgresSource(cfg.Postgres)
		if err != nil {
			slog.Error("failed to open document source", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		src = pg
	case "file":
		if *inputPath == "" {
			fmt.Fprintln(os.Stderr, "-input is required with -source=file")
			os.Exit(1)
		}
		src = store.NewFileSource(*inputPath)
	default:
		fmt.Fprintf(os.Stderr, "unknown source %q\n", *sourceKind)
		os.Exit(1)
	}

	eng := engine.New(tokenizer.Normalize, cfg.Index.BuildWorkers, cfg.Search.DefaultTopK)

	slog.Info("starting index build", "source", *sourceKind)
	start := time.Now()
	idx, err := eng.Build(ctx, src)
	if err != nil {
		slog.Error("build failed, no index published", "error", err)
		os.Exit(1)
	}

	indexPath := cfg.Index.Path()
	if err := codec.Write(indexPath, idx); err != nil {
		slog.Error("publishing index failed", "error", err, "path", indexPath)
		os.Exit(1)
	}
	slog.Info("index published",
		"path", indexPath,
		"documents", idx.N,
		"terms", idx.TermCount(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if *notify {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexPublished)
		defer producer.Close()
		event := kafka.Event{
			Key: indexPath,
			Value: engine.PublishedEvent{
				IndexPath: indexPath,
				Documents: idx.N,
				Terms:     idx.TermCount(),
				BuiltAt:   time.Now().UTC(),
			},
		}
		err := resilience.Retry(ctx, "publish-index-event", resilience.RetryConfig{}, func() error {
			return producer.Publish(ctx, event)
		})
		if err != nil {
			// The index is already on disk; searchd picks it up on
			// restart even without the notification.
			slog.Warn("failed to publish index event", "error", err)
		}
	}
}
