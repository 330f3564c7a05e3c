package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/billstock/billstock-api/internal/config"
	"github.com/billstock/billstock-api/internal/lookup"
	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/storage"
)

// fakeRunner records the ids it was asked to resolve and answers every id
// with a billed result.
type fakeRunner struct {
	mu      sync.Mutex
	batches [][]string
}

func (f *fakeRunner) RunBatch(ctx context.Context, providerCode string, accountIDs []string) ([]models.BatchResult, error) {
	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), accountIDs...))
	f.mu.Unlock()

	results := make([]models.BatchResult, len(accountIDs))
	for i, id := range accountIDs {
		bill := billedBill(providerCode, id, 100)
		results[i] = models.BatchResult{AccountID: id, OK: true, Bill: &bill}
	}
	return results, nil
}

// fakeCache is a plain map behind the CacheServiceInterface.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Health() map[string]interface{} {
	return map[string]interface{}{"status": "healthy"}
}

func newLookupFixture(cacheTTL time.Duration) (*LookupService, *fakeRunner, *fakeCache) {
	runner := &fakeRunner{}
	cache := newFakeCache()
	cfg := config.UpstreamConfig{MaxBatchSize: 10, MaxConcurrent: 3, CacheTTL: cacheTTL}
	return NewLookupService(runner, cache, cfg, testLogger()), runner, cache
}

func TestInquireBatchCachesResults(t *testing.T) {
	ctx := context.Background()
	service, runner, _ := newLookupFixture(10 * time.Minute)

	results, err := service.InquireBatch(ctx, "PLN", []string{"A1", "A2"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.False(t, results[0].Cached)
	require.False(t, results[1].Cached)
	require.Len(t, runner.batches, 1)

	// Second call is served fully from cache.
	results, err = service.InquireBatch(ctx, "PLN", []string{"A1", "A2"})
	require.NoError(t, err)
	require.True(t, results[0].Cached)
	require.True(t, results[1].Cached)
	require.Equal(t, "PLN::A1", results[0].Bill.Key)
	require.Len(t, runner.batches, 1)
}

func TestInquireBatchMergesCacheHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	service, runner, _ := newLookupFixture(10 * time.Minute)

	_, err := service.InquireBatch(ctx, "PLN", []string{"A2"})
	require.NoError(t, err)

	results, err := service.InquireBatch(ctx, "PLN", []string{"A1", "A2", "A3"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Merged results stay in input order with cached entries flagged.
	require.Equal(t, "A1", results[0].AccountID)
	require.False(t, results[0].Cached)
	require.Equal(t, "A2", results[1].AccountID)
	require.True(t, results[1].Cached)
	require.Equal(t, "A3", results[2].AccountID)
	require.False(t, results[2].Cached)

	// Only the misses hit the engine.
	require.Len(t, runner.batches, 2)
	require.Equal(t, []string{"A1", "A3"}, runner.batches[1])
}

func TestInquireBatchZeroTTLDisablesCache(t *testing.T) {
	ctx := context.Background()
	service, runner, cache := newLookupFixture(0)

	_, err := service.InquireBatch(ctx, "PLN", []string{"A1"})
	require.NoError(t, err)
	_, err = service.InquireBatch(ctx, "PLN", []string{"A1"})
	require.NoError(t, err)

	require.Len(t, runner.batches, 2)
	require.Empty(t, cache.data)
}

func TestInquireBatchValidatesBeforeCache(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newLookupFixture(10 * time.Minute)

	_, err := service.InquireBatch(ctx, "", []string{"A1"})
	require.ErrorIs(t, err, lookup.ErrEmptyProviderCode)

	_, err = service.InquireBatch(ctx, "PLN", nil)
	require.ErrorIs(t, err, lookup.ErrNoAccountIDs)

	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = "A1"
	}
	_, err = service.InquireBatch(ctx, "PLN", tooMany)
	require.ErrorIs(t, err, lookup.ErrBatchTooLarge)
}

func TestInquireBatchSkipsCorruptCacheEntries(t *testing.T) {
	ctx := context.Background()
	service, runner, cache := newLookupFixture(10 * time.Minute)

	require.NoError(t, cache.Set(ctx, "bill:PLN::A1", "{{{corrupt"))

	results, err := service.InquireBatch(ctx, "PLN", []string{"A1"})
	require.NoError(t, err)
	require.False(t, results[0].Cached)
	require.Len(t, runner.batches, 1)
}
