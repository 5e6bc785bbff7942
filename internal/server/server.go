// Package server provides the HTTP API for Susume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/recommend"
	"github.com/hyperjump/susume/internal/search"
	"github.com/hyperjump/susume/internal/storage"
)

// Server is the HTTP server for the Susume API.
type Server struct {
	service *recommend.Service
	storage storage.Storage
	index   *search.ProductIndex
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. The product index
// may be nil, in which case search endpoints return 501.
func NewServer(
	service *recommend.Service,
	st storage.Storage,
	index *search.ProductIndex,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		service: service,
		storage: st,
		index:   index,
		config:  cfg,
		logger:  logger,
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/recommendations", s.handleRecommend)
	r.Get("/api/v1/products/{id}", s.handleGetProduct)
	r.Get("/api/v1/products/search", s.handleSearchProducts)
	r.Get("/api/v1/customers/{id}/purchases", s.handleCustomerPurchases)
	r.Get("/api/v1/topsellers", s.handleTopSellers)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
