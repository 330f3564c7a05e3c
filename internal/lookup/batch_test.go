package lookup

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/billstock/billstock-api/internal/models"
)

// fakeCaller scripts per-account outcomes and counts calls.
type fakeCaller struct {
	mu      sync.Mutex
	calls   map[string]int
	respond func(accountID string, attempt int) (*Outcome, error)
}

func newFakeCaller(respond func(accountID string, attempt int) (*Outcome, error)) *fakeCaller {
	return &fakeCaller{calls: make(map[string]int), respond: respond}
}

func (f *fakeCaller) Call(ctx context.Context, providerCode, accountID string) (*Outcome, error) {
	f.mu.Lock()
	f.calls[accountID]++
	attempt := f.calls[accountID]
	f.mu.Unlock()
	return f.respond(accountID, attempt)
}

func (f *fakeCaller) callCount(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[accountID]
}

func billedPayload(amount string) *Outcome {
	return &Outcome{
		Payload: json.RawMessage(`{"success":true,"data":{"success":true,"bills":[{"moneyAmount":` + amount + `}]}}`),
		Status:  http.StatusOK,
	}
}

func newTestEngine(client Caller) *Engine {
	return NewEngine(client, Config{
		MaxAttempts:   2,
		BaseDelay:     time.Millisecond,
		MaxConcurrent: 3,
		MaxBatchSize:  100,
	}, testLogger())
}

func TestValidateBatch(t *testing.T) {
	_, err := ValidateBatch("", []string{"A1"}, 10)
	require.ErrorIs(t, err, ErrEmptyProviderCode)

	_, err = ValidateBatch("PLN", nil, 10)
	require.ErrorIs(t, err, ErrNoAccountIDs)

	_, err = ValidateBatch("PLN", []string{"  ", "\t"}, 10)
	require.ErrorIs(t, err, ErrNoAccountIDs)

	_, err = ValidateBatch("PLN", []string{"A1", "A2", "A3"}, 2)
	require.ErrorIs(t, err, ErrBatchTooLarge)

	ids, err := ValidateBatch("PLN", []string{" A1 ", "", "A2", "A1"}, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"A1", "A2", "A1"}, ids)

	// Zero disables the size check.
	ids, err = ValidateBatch("PLN", []string{"A1", "A2", "A3"}, 0)
	require.NoError(t, err)
	require.Len(t, ids, 3)
}

func TestRunBatchMixedOutcomes(t *testing.T) {
	badRequest := http.StatusBadRequest
	caller := newFakeCaller(func(accountID string, attempt int) (*Outcome, error) {
		switch accountID {
		case "A1":
			return billedPayload("50000"), nil
		case "A2":
			return nil, &ClassifiedError{
				Kind:    KindFatal,
				Status:  &badRequest,
				Preview: `{"success":false,"data":{"status_code":400,"success":false}}`,
				Message: "unexpected status for account A2",
			}
		default:
			return nil, retryableErr("transport: connection timed out")
		}
	})

	engine := newTestEngine(caller)
	results, err := engine.RunBatch(context.Background(), "P1", []string{"A1", "A2", "A3"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// A1: billed.
	require.Equal(t, "A1", results[0].AccountID)
	require.True(t, results[0].OK)
	require.Equal(t, "P1::A1", results[0].Bill.Key)
	require.Equal(t, "50000", results[0].Bill.AmountTotal.String())
	require.Equal(t, models.BillStatusBilled, results[0].Bill.Status)

	// A2: HTTP 400 remapped to a successful no-debt lookup.
	require.Equal(t, "A2", results[1].AccountID)
	require.True(t, results[1].OK)
	require.Equal(t, models.BillStatusNoDebt, results[1].Bill.Status)
	require.True(t, results[1].Bill.AmountTotal.IsZero())
	require.Equal(t, 1, caller.callCount("A2"))

	// A3: retries exhausted, surfaced as a failure with no HTTP status.
	require.Equal(t, "A3", results[2].AccountID)
	require.False(t, results[2].OK)
	require.Nil(t, results[2].Bill)
	require.Nil(t, results[2].UpstreamStatus)
	require.Contains(t, results[2].Error, "timed out")
	require.Equal(t, 2, caller.callCount("A3"))
}

func TestRunBatchRetriesThenSucceeds(t *testing.T) {
	caller := newFakeCaller(func(accountID string, attempt int) (*Outcome, error) {
		if attempt == 1 {
			return nil, retryableErr("transport: reset")
		}
		return billedPayload("123"), nil
	})

	engine := newTestEngine(caller)
	results, err := engine.RunBatch(context.Background(), "P1", []string{"A1"})
	require.NoError(t, err)
	require.True(t, results[0].OK)
	require.Equal(t, 2, caller.callCount("A1"))
}

func TestRunBatchFatalErrorCarriesUpstreamStatus(t *testing.T) {
	forbidden := http.StatusForbidden
	caller := newFakeCaller(func(accountID string, attempt int) (*Outcome, error) {
		return nil, &ClassifiedError{Kind: KindFatal, Status: &forbidden, Message: "denied"}
	})

	engine := newTestEngine(caller)
	results, err := engine.RunBatch(context.Background(), "P1", []string{"A1"})
	require.NoError(t, err)
	require.False(t, results[0].OK)
	require.NotNil(t, results[0].UpstreamStatus)
	require.Equal(t, http.StatusForbidden, *results[0].UpstreamStatus)
	// Fatal errors are never retried.
	require.Equal(t, 1, caller.callCount("A1"))
}

func TestRunBatchPreservesInputOrder(t *testing.T) {
	caller := newFakeCaller(func(accountID string, attempt int) (*Outcome, error) {
		// Make earlier ids slower so completion order differs from input.
		if accountID == "A1" {
			time.Sleep(20 * time.Millisecond)
		}
		return billedPayload("1"), nil
	})

	engine := newTestEngine(caller)
	ids := []string{"A1", "A2", "A3", "A4", "A5"}
	results, err := engine.RunBatch(context.Background(), "P1", ids)
	require.NoError(t, err)
	require.Len(t, results, len(ids))
	for i, id := range ids {
		require.Equal(t, id, results[i].AccountID)
	}
}

func TestRunBatchKeepsDuplicateIDs(t *testing.T) {
	caller := newFakeCaller(func(accountID string, attempt int) (*Outcome, error) {
		return billedPayload("1"), nil
	})

	engine := newTestEngine(caller)
	results, err := engine.RunBatch(context.Background(), "P1", []string{"A1", "A1"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, results[0].Bill.Key, results[1].Bill.Key)
}

func TestRunBatchValidationError(t *testing.T) {
	engine := newTestEngine(newFakeCaller(func(string, int) (*Outcome, error) {
		t.Fatal("caller must not be invoked on validation failure")
		return nil, nil
	}))

	_, err := engine.RunBatch(context.Background(), "  ", []string{"A1"})
	require.ErrorIs(t, err, ErrEmptyProviderCode)
}
