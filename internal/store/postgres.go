package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/searchlab/postsearch/pkg/config"
	pserrors "github.com/searchlab/postsearch/pkg/errors"
	"github.com/searchlab/postsearch/pkg/resilience"
)

// PostgresSource reads cleaned posts from the posts table. The table carries
// pre-cleaned text alongside engagement metadata; the text cleaner that
// populates clean_text runs upstream of this repo.
type PostgresSource struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// NewPostgresSource opens a connection pool and verifies it with a ping.
func NewPostgresSource(cfg config.PostgresConfig) (*PostgresSource, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: opening postgres connection: %v", pserrors.ErrSourceUnavailable, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %v", pserrors.ErrSourceUnavailable, err)
	}
	return &PostgresSource{
		db:     db,
		table:  cfg.Table,
		logger: slog.Default().With("component", "postgres-source"),
	}, nil
}

// FetchAll reads every post with its metadata in a single query. Transient
// failures are retried before the build is aborted.
func (s *PostgresSource) FetchAll(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := resilience.Retry(ctx, "postgres-fetch-all", resilience.RetryConfig{}, func() error {
		fetched, err := s.fetchAll(ctx)
		if err != nil {
			return err
		}
		docs = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pserrors.ErrSourceUnavailable, err)
	}
	s.logger.Info("fetched documents", "count", len(docs), "table", s.table)
	return docs, nil
}

func (s *PostgresSource) fetchAll(ctx context.Context) ([]Document, error) {
	query := fmt.Sprintf(
		"SELECT post_id, clean_text, likes, comment_count, post_date FROM %s",
		s.table,
	)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id       string
			text     sql.NullString
			likes    sql.NullInt64
			comments sql.NullInt64
			date     sql.NullTime
		)
		if err := rows.Scan(&id, &text, &likes, &comments, &date); err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		meta := Metadata{}
		if likes.Valid {
			meta["likes"] = likes.Int64
		}
		if comments.Valid {
			meta["comments"] = comments.Int64
		}
		if date.Valid {
			meta["date"] = date.Time.Format("2006-01-02")
		}
		docs = append(docs, Document{
			ID:       id,
			Text:     text.String,
			Metadata: meta,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post rows: %w", err)
	}
	return docs, nil
}

// Ping reports connectivity, for health checks.
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}
