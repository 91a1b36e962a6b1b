package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/catalog-pager/pkg/catalog"
	"github.com/Sternrassler/catalog-pager/pkg/logging"
	"github.com/Sternrassler/catalog-pager/pkg/metrics"
	"github.com/Sternrassler/catalog-pager/pkg/paging"
	"github.com/Sternrassler/catalog-pager/pkg/pagination"
)

const defaultPageLimit = 50

// entityRoutes type-erases one catalog source for the HTTP layer.
type entityRoutes struct {
	page func(ctx context.Context, offset, limit int) (any, error)
	all  func(ctx context.Context, start int) (any, int, error)
}

func routesFor[T any](s *catalog.Source[T]) entityRoutes {
	return entityRoutes{
		page: func(ctx context.Context, offset, limit int) (any, error) {
			return s.LoadPage(ctx, offset, limit)
		},
		all: func(ctx context.Context, start int) (any, int, error) {
			items, err := s.LoadAll(ctx, start)
			return items, len(items), err
		},
	}
}

type server struct {
	entities map[catalog.Entity]entityRoutes
	redis    *redis.Client
	logger   zerolog.Logger
}

// newServer builds the proxy over cat. redisClient may be nil when the
// catalog is served from an HTTP upstream.
func newServer(cat *catalog.Catalog, redisClient *redis.Client) *server {
	return &server{
		entities: map[catalog.Entity]entityRoutes{
			catalog.EntityAlbums:    routesFor(cat.Albums),
			catalog.EntityArtists:   routesFor(cat.Artists),
			catalog.EntityPlaylists: routesFor(cat.Playlists),
		},
		redis:  redisClient,
		logger: logging.NewLogger("proxy"),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /catalog/{entity}", s.pageHandler)
	mux.HandleFunc("GET /catalog/{entity}/all", s.allHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			s.logger.Error().Err(err).Msg("Readiness check failed")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) pageHandler(w http.ResponseWriter, r *http.Request) {
	routes, ok := s.lookup(w, r)
	if !ok {
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := routes.page(r.Context(), offset, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, page)
}

func (s *server) allHandler(w http.ResponseWriter, r *http.Request) {
	routes, ok := s.lookup(w, r)
	if !ok {
		return
	}

	start, err := queryInt(r, "start", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, count, err := routes.all(r.Context(), start)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, struct {
		Items any `json:"items"`
		Count int `json:"count"`
	}{items, count})
}

func (s *server) lookup(w http.ResponseWriter, r *http.Request) (entityRoutes, bool) {
	entity := catalog.Entity(r.PathValue("entity"))
	routes, ok := s.entities[entity]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown entity %q", entity), http.StatusNotFound)
	}
	return routes, ok
}

// fail maps load errors to a status: bad ranges are the caller's fault,
// everything else is an upstream failure.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, paging.ErrInvalidRange) || errors.Is(err, pagination.ErrInvalidConfig) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Warn().
		Err(err).
		Str("path", r.URL.Path).
		Str("query", r.URL.RawQuery).
		Msg("Catalog load failed")
	http.Error(w, fmt.Sprintf("catalog request failed: %v", err), http.StatusBadGateway)
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, value)
	}
	return n, nil
}
