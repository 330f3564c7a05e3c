package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds how much of an upstream response is read. Provider
// payloads are small JSON documents; anything beyond this is garbage.
const maxBodyBytes = 1 << 20

// Outcome is the transient result of one successful upstream attempt. It is
// consumed immediately by the normalizer and never shared across tasks.
type Outcome struct {
	Payload json.RawMessage
	Status  int
}

// Caller issues a single bill inquiry against the upstream provider.
type Caller interface {
	Call(ctx context.Context, providerCode, accountID string) (*Outcome, error)
}

// Client is the HTTP upstream client. It is stateless per call and safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	logger     *logrus.Logger
}

// inquiryRequest is the upstream wire format for a single lookup.
type inquiryRequest struct {
	ContractNumber string `json:"contract_number"`
	SKU            string `json:"sku"`
}

// NewClient creates an upstream client for the given endpoint. baseURL and
// path are joined; timeout bounds each individual call.
func NewClient(baseURL, path string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		endpoint:   strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"),
		timeout:    timeout,
		logger:     logger,
	}
}

// Call sends one inquiry and classifies the outcome. On success it returns
// the raw JSON payload; on failure it returns a ClassifiedError tagged
// retryable or fatal per the provider's failure taxonomy.
func (c *Client) Call(ctx context.Context, providerCode, accountID string) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(inquiryRequest{ContractNumber: accountID, SKU: providerCode})
	if err != nil {
		return nil, &ClassifiedError{Kind: KindFatal, Message: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ClassifiedError{Kind: KindFatal, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures and per-call timeout expiry are retryable.
		return nil, retryableErr("transport: %v", err)
	}
	defer resp.Body.Close()

	// Read the whole body before parsing; the provider sometimes omits or
	// mis-declares the content type.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, retryableErr("read response body: %v", err)
	}

	status := resp.StatusCode
	if status < 200 || status > 299 {
		cerr := &ClassifiedError{
			Kind:    classifyStatus(status),
			Status:  &status,
			Preview: truncatePreview(raw),
			Message: fmt.Sprintf("unexpected status for account %s", accountID),
		}
		c.logger.WithFields(logrus.Fields{
			"account_id": accountID,
			"provider":   providerCode,
			"status":     status,
			"retryable":  cerr.IsRetryable(),
		}).Debug("Upstream call failed")
		return nil, cerr
	}

	// A success status with a non-JSON body is not worth retrying.
	if !json.Valid(raw) {
		return nil, &ClassifiedError{
			Kind:    KindFatal,
			Status:  &status,
			Preview: truncatePreview(raw),
			Message: "malformed JSON in success response",
		}
	}

	return &Outcome{Payload: json.RawMessage(raw), Status: status}, nil
}

// classifyStatus maps a non-2xx HTTP status to a failure kind: 429 and all
// 5xx are retryable, every other 4xx is fatal.
func classifyStatus(status int) ErrorKind {
	if status == http.StatusTooManyRequests || status >= 500 {
		return KindRetryable
	}
	return KindFatal
}
