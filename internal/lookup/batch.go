package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/models"
)

// Validation errors surfaced synchronously before any upstream call.
var (
	ErrEmptyProviderCode = errors.New("lookup: provider code is required")
	ErrNoAccountIDs      = errors.New("lookup: at least one account id is required")
	ErrBatchTooLarge     = errors.New("lookup: batch exceeds the configured maximum")
)

// Config holds the engine knobs. All values come from external configuration.
type Config struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxConcurrent int
	MaxBatchSize  int
}

// Engine drives a batch of bill inquiries: one upstream call per account id
// under the concurrency ceiling, retry with backoff per call, and a
// normalized outcome per id in input order.
type Engine struct {
	client Caller
	cfg    Config
	logger *logrus.Logger
}

// NewEngine creates a batch engine on top of the given upstream caller.
func NewEngine(client Caller, cfg Config, logger *logrus.Logger) *Engine {
	return &Engine{client: client, cfg: cfg, logger: logger}
}

// ValidateBatch trims and filters blank account ids and checks the request
// against the batch limits. Duplicate ids are kept: deduplication is the
// caller's responsibility. maxBatchSize <= 0 disables the size check.
func ValidateBatch(providerCode string, accountIDs []string, maxBatchSize int) ([]string, error) {
	if strings.TrimSpace(providerCode) == "" {
		return nil, ErrEmptyProviderCode
	}

	ids := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoAccountIDs
	}
	if maxBatchSize > 0 && len(ids) > maxBatchSize {
		return nil, fmt.Errorf("%w: %d ids, limit is %d", ErrBatchTooLarge, len(ids), maxBatchSize)
	}
	return ids, nil
}

// RunBatch performs the full fan-out for one provider code and returns one
// BatchResult per submitted account id, in input order. Per-account failures
// are isolated; RunBatch itself only fails on input validation.
func (e *Engine) RunBatch(ctx context.Context, providerCode string, accountIDs []string) ([]models.BatchResult, error) {
	providerCode = strings.TrimSpace(providerCode)
	ids, err := ValidateBatch(providerCode, accountIDs, e.cfg.MaxBatchSize)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tasks := make([]func(context.Context) models.BatchResult, len(ids))
	for i, id := range ids {
		tasks[i] = func(ctx context.Context) models.BatchResult {
			return e.lookupOne(ctx, providerCode, id)
		}
	}

	results := RunAll(ctx, tasks, e.cfg.MaxConcurrent)

	success := 0
	for _, r := range results {
		if r.OK {
			success++
		}
	}
	e.logger.WithFields(logrus.Fields{
		"provider": providerCode,
		"total":    len(results),
		"success":  success,
		"errors":   len(results) - success,
		"duration": time.Since(start),
	}).Info("Batch inquiry completed")

	return results, nil
}

// lookupOne runs the client-with-retry pipeline for a single account and
// folds the outcome into a BatchResult. It never returns an error: upstream
// failures become per-account result entries.
func (e *Engine) lookupOne(ctx context.Context, providerCode, accountID string) models.BatchResult {
	start := time.Now()

	outcome, err := Retry(ctx, func(ctx context.Context) (*Outcome, error) {
		return e.client.Call(ctx, providerCode, accountID)
	}, e.cfg.MaxAttempts, e.cfg.BaseDelay)

	if err != nil {
		cerr, classified := AsClassified(err)

		// The provider answers HTTP 400 when an account has no outstanding
		// debt; that is a successful "nothing to pay" lookup, not an error.
		if classified && cerr.Status != nil && *cerr.Status == http.StatusBadRequest {
			bill := NormalizeNoDebt(cerr.Preview, accountID, providerCode)
			return models.BatchResult{
				AccountID:  accountID,
				OK:         true,
				Bill:       &bill,
				DurationMs: time.Since(start).Milliseconds(),
			}
		}

		result := models.BatchResult{
			AccountID:  accountID,
			OK:         false,
			Error:      err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if classified {
			result.UpstreamStatus = cerr.Status
		}
		e.logger.WithFields(logrus.Fields{
			"provider":   providerCode,
			"account_id": accountID,
			"error":      err.Error(),
		}).Warn("Account inquiry failed")
		return result
	}

	bill := Normalize(outcome.Payload, accountID, providerCode)
	return models.BatchResult{
		AccountID:  accountID,
		OK:         true,
		Bill:       &bill,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
