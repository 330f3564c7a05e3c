package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/config"
	"github.com/billstock/billstock-api/internal/lookup"
	"github.com/billstock/billstock-api/internal/models"
)

// LookupService fronts the fan-out engine with a result cache. Validation
// happens before the cache is consulted so an oversized or empty batch is
// rejected even when every id would have been a cache hit.
type LookupService struct {
	engine BatchRunner
	cache  CacheServiceInterface
	cfg    config.UpstreamConfig
	logger *logrus.Logger
}

// NewLookupService creates a new lookup service
func NewLookupService(engine BatchRunner, cache CacheServiceInterface, cfg config.UpstreamConfig, logger *logrus.Logger) *LookupService {
	return &LookupService{
		engine: engine,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// InquireBatch resolves a batch of account ids, serving cached bills where
// possible and fanning out to the upstream provider for the rest. The result
// slice has one entry per submitted id, in input order.
func (s *LookupService) InquireBatch(ctx context.Context, providerCode string, accountIDs []string) ([]models.BatchResult, error) {
	providerCode = strings.TrimSpace(providerCode)
	ids, err := lookup.ValidateBatch(providerCode, accountIDs, s.cfg.MaxBatchSize)
	if err != nil {
		return nil, err
	}

	results := make([]models.BatchResult, len(ids))
	missIdx := make([]int, 0, len(ids))
	missIDs := make([]string, 0, len(ids))

	for i, id := range ids {
		if bill, ok := s.cachedBill(ctx, providerCode, id); ok {
			results[i] = models.BatchResult{AccountID: id, OK: true, Bill: bill, Cached: true}
			continue
		}
		missIdx = append(missIdx, i)
		missIDs = append(missIDs, id)
	}

	if len(missIDs) > 0 {
		fetched, err := s.engine.RunBatch(ctx, providerCode, missIDs)
		if err != nil {
			return nil, err
		}
		for j, result := range fetched {
			results[missIdx[j]] = result
			if result.OK && result.Bill != nil {
				s.cacheBill(ctx, providerCode, result.AccountID, result.Bill)
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"provider": providerCode,
		"total":    len(ids),
		"cached":   len(ids) - len(missIDs),
	}).Debug("Batch inquiry served")

	return results, nil
}

// Health returns service health status
func (s *LookupService) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":         "healthy",
		"max_concurrent": s.cfg.MaxConcurrent,
		"max_batch_size": s.cfg.MaxBatchSize,
		"cache":          s.cache.Health(),
	}
}

func (s *LookupService) cachedBill(ctx context.Context, providerCode, accountID string) (*models.Bill, bool) {
	if s.cfg.CacheTTL <= 0 {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, cacheKey(providerCode, accountID))
	if err != nil {
		return nil, false
	}

	var bill models.Bill
	if err := json.Unmarshal([]byte(cached), &bill); err != nil {
		s.logger.WithFields(logrus.Fields{
			"provider":   providerCode,
			"account_id": accountID,
		}).Warn("Failed to unmarshal cached bill, refetching")
		return nil, false
	}
	return &bill, true
}

func (s *LookupService) cacheBill(ctx context.Context, providerCode, accountID string, bill *models.Bill) {
	if s.cfg.CacheTTL <= 0 {
		return
	}

	encoded, err := json.Marshal(bill)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(providerCode, accountID), string(encoded)); err != nil {
		s.logger.WithError(err).Warn("Failed to cache bill")
	}
}

func cacheKey(providerCode, accountID string) string {
	return "bill:" + models.BillKey(providerCode, accountID)
}
