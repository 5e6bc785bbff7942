package recommend

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/models"
	"github.com/hyperjump/susume/internal/similarity"
	"github.com/hyperjump/susume/internal/storage"
)

// Result is the outcome for one customer: a similarity-based recommendation
// for known customers, or the popularity fallback for unknown ones.
// Exactly one of the two fields is set.
type Result struct {
	Recommendation *models.Recommendation          `json:"recommendation,omitempty"`
	ColdStart      *models.ColdStartRecommendation `json:"cold_start,omitempty"`
}

// Failure records one customer's error during a batch run.
type Failure struct {
	CustomerID string
	Err        error
}

// BatchResult collects per-customer outcomes of a run over all customers.
// Failures never abort the batch; they are recorded and the run continues.
type BatchResult struct {
	Results  []*Result
	Failures []Failure
}

// Service routes recommendation requests: customers with history go through
// the similarity engine, unknown customers get the cold-start fallback. The
// artifact is loaded once and swapped atomically on Reload, so serving
// always sees a matrix/index pair from a single build.
type Service struct {
	storage      storage.Storage
	artifactPath string
	cfg          config.RecommendConfig
	logger       *zap.Logger

	mu       sync.RWMutex
	artifact *similarity.Artifact
}

// NewService creates a recommendation service. The artifact is loaded
// lazily on first use.
func NewService(st storage.Storage, artifactPath string, cfg config.RecommendConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage:      st,
		artifactPath: artifactPath,
		cfg:          cfg,
		logger:       logger,
	}
}

// Reload reads the artifact from disk, verifies it against the current
// catalog size, and swaps it in. Called at startup and after a rebuild.
func (s *Service) Reload(ctx context.Context) error {
	art, err := similarity.Load(s.artifactPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotPreprocessed
		}
		return fmt.Errorf("failed to load similarity artifact: %w", err)
	}
	count, err := s.storage.CountProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if err := art.CheckFresh(int(count)); err != nil {
		return err
	}

	s.mu.Lock()
	s.artifact = art
	s.mu.Unlock()
	s.logger.Info("similarity artifact loaded",
		zap.String("path", s.artifactPath), zap.Int("products", art.Dimension()))
	return nil
}

func (s *Service) currentArtifact(ctx context.Context) (*similarity.Artifact, error) {
	s.mu.RLock()
	art := s.artifact
	s.mu.RUnlock()
	if art != nil {
		return art, nil
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact, nil
}

// ForCustomer returns recommendations for one customer. Customers with no
// purchase history get the cold-start fallback, which never touches the
// similarity matrix. topCategories/topN <= 0 fall back to configured
// defaults. A missing novel candidate is logged, not treated as a failure.
func (s *Service) ForCustomer(ctx context.Context, customerID string, topCategories, topN int) (*Result, error) {
	if topCategories <= 0 {
		topCategories = s.cfg.TopCategories
	}
	if topN <= 0 {
		topN = s.cfg.TopN
	}

	history, err := s.storage.PurchasesByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	if len(history) == 0 {
		cold, err := s.coldStart(ctx, customerID)
		if err != nil {
			return nil, err
		}
		return &Result{ColdStart: cold}, nil
	}

	art, err := s.currentArtifact(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := Recommend(history, art, topCategories, topN)
	if err == ErrNoNovelCandidate {
		s.logger.Warn("no novel candidate for customer", zap.String("customer", customerID))
		return &Result{Recommendation: rec}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Recommendation: rec}, nil
}

// coldStart returns the globally most purchased products. Kept separate
// from Recommend so the popularity path can never leak into the
// similarity-based one.
func (s *Service) coldStart(ctx context.Context, customerID string) (*models.ColdStartRecommendation, error) {
	s.logger.Info("unknown customer, using cold-start fallback", zap.String("customer", customerID))
	sellers, err := s.storage.TopSellers(ctx, s.cfg.ColdStartLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top sellers: %w", err)
	}
	return &models.ColdStartRecommendation{
		CustomerID: customerID,
		TopSellers: sellers,
	}, nil
}

// ForAll runs recommendations for every known customer. One customer's
// failure is recorded and the run continues; only cross-cutting errors
// (storage unavailable, artifact missing) abort the batch.
func (s *Service) ForAll(ctx context.Context, topCategories, topN int) (*BatchResult, error) {
	if _, err := s.currentArtifact(ctx); err != nil {
		return nil, err
	}
	customers, err := s.storage.CustomerIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	batch := &BatchResult{}
	for _, cid := range customers {
		res, err := s.ForCustomer(ctx, cid, topCategories, topN)
		if err != nil {
			s.logger.Error("recommendation failed for customer",
				zap.String("customer", cid), zap.Error(err))
			batch.Failures = append(batch.Failures, Failure{CustomerID: cid, Err: err})
			continue
		}
		batch.Results = append(batch.Results, res)
	}
	return batch, nil
}
