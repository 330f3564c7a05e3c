package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Bill status tags. A genuine zero-balance bill and a "no data found"
// placeholder share the same shape, so the tag is the only reliable way to
// tell them apart downstream.
const (
	BillStatusBilled     = "billed"
	BillStatusNoDebt     = "no_debt"
	BillStatusParseError = "parse_error"
)

// BillKey builds the canonical inventory key for a (provider, account) pair.
// Duplicate input account ids produce duplicate keys; deduplication is the
// caller's responsibility before submission.
func BillKey(providerCode, accountID string) string {
	return providerCode + "::" + accountID
}

// Bill is the canonical record produced by the upstream normalizer. Amounts
// are always non-negative; unparsable upstream amounts decode to zero. The
// raw upstream payload is retained for audit and debugging.
type Bill struct {
	Key             string          `json:"key" example:"PLN::140012345678"`
	ProviderCode    string          `json:"provider_code" example:"PLN"`
	AccountID       string          `json:"account_id" example:"140012345678"`
	CustomerName    string          `json:"customer_name" example:"BUDI SANTOSO"`
	CustomerAddress string          `json:"customer_address" example:"JL MERDEKA NO 1"`
	BillingMonth    string          `json:"billing_month,omitempty" example:"202508"`
	AmountPrevious  decimal.Decimal `json:"amount_previous"`
	AmountCurrent   decimal.Decimal `json:"amount_current"`
	AmountTotal     decimal.Decimal `json:"amount_total"`
	Status          string          `json:"status" example:"billed"`
	RawPayload      json.RawMessage `json:"raw_payload,omitempty" swaggertype:"object"`
}

// BatchRequest represents a batch bill inquiry request
type BatchRequest struct {
	ProviderCode string   `json:"provider_code" binding:"required" example:"PLN"`
	AccountIDs   []string `json:"account_ids" binding:"required,min=1" example:"140012345678,140087654321"`
}

// BatchResult represents individual result in batch response. Exactly one
// entry is returned per submitted account id, in input order.
type BatchResult struct {
	AccountID      string `json:"account_id" example:"140012345678"`
	OK             bool   `json:"ok" example:"true"`
	Bill           *Bill  `json:"bill,omitempty"`
	Error          string `json:"error,omitempty"`
	UpstreamStatus *int   `json:"upstream_status,omitempty" example:"404"`
	Cached         bool   `json:"cached,omitempty"`
	DurationMs     int64  `json:"duration_ms" example:"2500"`
}

// BatchResponse represents a batch bill inquiry response
type BatchResponse struct {
	Results    []BatchResult `json:"results"`
	Total      int           `json:"total" example:"3"`
	Success    int           `json:"success" example:"2"`
	Errors     int           `json:"errors" example:"1"`
	DurationMs int64         `json:"duration_ms" example:"5200"`
	Timestamp  time.Time     `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}
