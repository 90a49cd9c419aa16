// Package server exposes the search engine over HTTP for the presentation
// layer: /api/v1/search plus cache management endpoints.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/searchlab/postsearch/internal/cache"
	"github.com/searchlab/postsearch/internal/engine"
	pserrors "github.com/searchlab/postsearch/pkg/errors"
	"github.com/searchlab/postsearch/pkg/logger"
	"github.com/searchlab/postsearch/pkg/metrics"
)

type Handler struct {
	engine     *engine.Engine
	cache      *cache.QueryCache
	metrics    *metrics.Metrics
	defaultK   int
	maxResults int
	logger     *slog.Logger
}

// New creates the HTTP handler set. cache and m may be nil; the handler
// degrades to uncached, unmeasured operation.
func New(eng *engine.Engine, queryCache *cache.QueryCache, m *metrics.Metrics, defaultK, maxResults int) *Handler {
	return &Handler{
		engine:     eng,
		cache:      queryCache,
		metrics:    m,
		defaultK:   defaultK,
		maxResults: maxResults,
		logger:     slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=...&k=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	k := h.defaultK
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		k = parsed
	}

	var resp *engine.Response
	var err error
	cacheHit := false
	if h.cache != nil {
		resp, cacheHit, err = h.cache.GetOrCompute(ctx, query, k, func() (*engine.Response, error) {
			return h.engine.Search(ctx, query, k)
		})
	} else {
		resp, err = h.engine.Search(ctx, query, k)
	}
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.observe("error", cacheHit, start, 0)
		h.writeError(w, pserrors.HTTPStatusCode(err), "search failed")
		return
	}

	log.Info("search completed",
		"query", query,
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	resultType := "hit"
	if len(resp.Results) == 0 {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheHit, start, len(resp.Results))
	h.writeJSON(w, http.StatusOK, resp)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": hitRate,
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) observe(resultType string, cacheHit bool, start time.Time, results int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(results))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
