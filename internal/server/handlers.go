package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/recommend"
)

type recommendRequest struct {
	CustomerID    string `json:"customer_id"`
	TopCategories int    `json:"top_categories,omitempty"`
	TopN          int    `json:"top_n,omitempty"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" {
		s.respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	s.logger.Debug("recommendation request",
		zap.String("customer", req.CustomerID),
		zap.Int("top_categories", req.TopCategories), zap.Int("top_n", req.TopN))

	res, err := s.service.ForCustomer(r.Context(), req.CustomerID, req.TopCategories, req.TopN)
	if err != nil {
		s.respondRecommendError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) respondRecommendError(w http.ResponseWriter, err error) {
	var integrity *recommend.DataIntegrityError
	switch {
	case errors.Is(err, recommend.ErrNotPreprocessed):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &integrity):
		s.logger.Error("data integrity failure", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("recommendation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.storage.GetProduct(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "product not found")
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.respondError(w, http.StatusNotImplemented, "product search not enabled")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := queryInt(r, "limit", 10)
	hits, err := s.index.Search(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("product search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": q, "hits": hits})
}

func (s *Server) handleCustomerPurchases(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := s.storage.PurchasesByCustomer(r.Context(), id)
	if err != nil {
		s.logger.Error("purchase lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"customer_id": id,
		"purchases":   history,
	})
}

func (s *Server) handleTopSellers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", s.config.Recommend.ColdStartLimit)
	sellers, err := s.storage.TopSellers(r.Context(), limit)
	if err != nil {
		s.logger.Error("top sellers failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"topsellers": sellers})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productCount, err := s.storage.CountProducts(ctx)
	if err != nil {
		s.logger.Error("status: count products failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	purchaseCount, err := s.storage.CountPurchases(ctx)
	if err != nil {
		s.logger.Error("status: count purchases failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	artifactReady := false
	if _, err := os.Stat(s.config.Data.ArtifactPath); err == nil {
		artifactReady = true
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"products":       productCount,
		"purchases":      purchaseCount,
		"artifact_ready": artifactReady,
		"config": map[string]interface{}{
			"embedding_strategy": s.config.Embedding.Strategy,
			"top_categories":     s.config.Recommend.TopCategories,
			"top_n":              s.config.Recommend.TopN,
			"cold_start_limit":   s.config.Recommend.ColdStartLimit,
			"database_path":      s.config.Data.DatabasePath,
			"artifact_path":      s.config.Data.ArtifactPath,
		},
	})
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
