package lookup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "/v1/inquiry", 2*time.Second, testLogger())
}

func TestClientCallSuccess(t *testing.T) {
	var gotBody inquiryRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/inquiry", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"success":true,"bills":[{"moneyAmount":50000}]}}`))
	})

	outcome, err := client.Call(context.Background(), "PLN", "140012345678")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, outcome.Status)
	require.True(t, json.Valid(outcome.Payload))

	require.Equal(t, "140012345678", gotBody.ContractNumber)
	require.Equal(t, "PLN", gotBody.SKU)
}

func TestClientCallFatalOn404(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such account", http.StatusNotFound)
	})

	_, err := client.Call(context.Background(), "PLN", "A1")
	cerr, ok := AsClassified(err)
	require.True(t, ok)
	require.False(t, cerr.IsRetryable())
	require.NotNil(t, cerr.Status)
	require.Equal(t, http.StatusNotFound, *cerr.Status)
	require.Contains(t, cerr.Preview, "no such account")
}

func TestClientCallRetryableStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.Call(context.Background(), "PLN", "A1")
		cerr, ok := AsClassified(err)
		require.True(t, ok, "status %d", status)
		require.True(t, cerr.IsRetryable(), "status %d should be retryable", status)
		require.Equal(t, status, *cerr.Status)
	}
}

func TestClientCallFatalOnMalformedSuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.Call(context.Background(), "PLN", "A1")
	cerr, ok := AsClassified(err)
	require.True(t, ok)
	require.False(t, cerr.IsRetryable())
	require.Contains(t, cerr.Preview, "not json")
}

func TestClientCallTransportErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(server.URL, "/v1/inquiry", time.Second, testLogger())
	server.Close()

	_, err := client.Call(context.Background(), "PLN", "A1")
	cerr, ok := AsClassified(err)
	require.True(t, ok)
	require.True(t, cerr.IsRetryable())
	require.Nil(t, cerr.Status)
}

func TestClientCallTimeoutIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.timeout = 20 * time.Millisecond

	_, err := client.Call(context.Background(), "PLN", "A1")
	cerr, ok := AsClassified(err)
	require.True(t, ok)
	require.True(t, cerr.IsRetryable())
	require.Nil(t, cerr.Status)
}

func TestTruncatePreview(t *testing.T) {
	long := strings.Repeat("é", previewLimit+50)
	preview := truncatePreview([]byte(long))
	require.Equal(t, previewLimit, len([]rune(preview)))

	short := truncatePreview([]byte("  short body  "))
	require.Equal(t, "short body", short)
}
