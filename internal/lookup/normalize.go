package lookup

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/billstock/billstock-api/internal/models"
)

// Upstream payloads are inconsistent across provider firmware versions, so
// every interesting field is tried under several known spellings, in order.
var (
	amountFields  = []string{"moneyAmount", "money_amount", "amount"}
	nameFields    = []string{"customer_name", "customerName", "name"}
	addressFields = []string{"customer_address", "customerAddress", "address"}
	monthFields   = []string{"billing_month", "billingMonth", "period"}
)

const (
	placeholderName    = "UNKNOWN CUSTOMER"
	placeholderAddress = "-"
	reasonFallback     = "no billing data found"
	reasonParseError   = "unable to parse upstream response"
)

// envelope is the permissive top-level shape. Data stays raw because some
// provider versions return an object and others a bare string.
type envelope struct {
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// payloadData is the nested shape. Bill line items stay raw so one malformed
// item cannot reject the whole list, and response_text stays raw because it
// usually holds JSON re-encoded as a string.
type payloadData struct {
	Success      *bool             `json:"success"`
	StatusCode   *int              `json:"status_code"`
	Message      string            `json:"message"`
	ResponseText json.RawMessage   `json:"response_text"`
	Bills        []json.RawMessage `json:"bills"`
}

// Normalize converts one raw upstream payload into a canonical Bill for the
// given account. It is total: any malformed, partial, or null payload
// degrades to a placeholder Bill with zero amounts, never an error.
func Normalize(payload json.RawMessage, accountID, providerCode string) (bill models.Bill) {
	defer func() {
		if r := recover(); r != nil {
			bill = placeholderBill(accountID, providerCode, reasonParseError, models.BillStatusParseError, payload)
		}
	}()

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return placeholderBill(accountID, providerCode, reasonParseError, models.BillStatusParseError, payload)
	}

	// The nested shape is decoded best-effort: a string or malformed object
	// in "data" leaves it nil and routes to the no-success path.
	var data payloadData
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &data)
	}

	if boolVal(env.Success) && boolVal(data.Success) && len(data.Bills) > 0 {
		return billedBill(data.Bills[0], accountID, providerCode, payload)
	}

	reason := deriveReason(&env, &data)
	return placeholderBill(accountID, providerCode, reason, models.BillStatusNoDebt, payload)
}

// NormalizeNoDebt builds the canonical "no data / no debt" Bill from a raw
// upstream body excerpt. The provider conventionally answers HTTP 400 when an
// account simply has nothing to pay, so the batch orchestrator remaps that
// failure here instead of surfacing it as an error.
func NormalizeNoDebt(preview, accountID, providerCode string) models.Bill {
	raw := []byte(preview)
	if json.Valid(raw) {
		var env envelope
		var data payloadData
		if err := json.Unmarshal(raw, &env); err == nil {
			if len(env.Data) > 0 {
				_ = json.Unmarshal(env.Data, &data)
			}
			return placeholderBill(accountID, providerCode, deriveReason(&env, &data), models.BillStatusNoDebt, raw)
		}
	}

	reason := strings.TrimSpace(preview)
	if reason == "" {
		reason = reasonFallback
	}
	return placeholderBill(accountID, providerCode, reason, models.BillStatusNoDebt, nil)
}

// billedBill extracts the first line item of a successful inquiry.
func billedBill(item json.RawMessage, accountID, providerCode string, payload json.RawMessage) models.Bill {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		fields = nil
	}

	amount := extractAmount(fields)
	return models.Bill{
		Key:             models.BillKey(providerCode, accountID),
		ProviderCode:    providerCode,
		AccountID:       accountID,
		CustomerName:    extractString(fields, nameFields, placeholderName),
		CustomerAddress: extractString(fields, addressFields, placeholderAddress),
		BillingMonth:    extractString(fields, monthFields, ""),
		AmountPrevious:  decimal.Zero,
		AmountCurrent:   amount,
		AmountTotal:     amount,
		Status:          models.BillStatusBilled,
		RawPayload:      payload,
	}
}

// placeholderBill builds a zero-amount Bill whose address carries a
// human-readable reason instead of a street address.
func placeholderBill(accountID, providerCode, reason, status string, payload json.RawMessage) models.Bill {
	return models.Bill{
		Key:             models.BillKey(providerCode, accountID),
		ProviderCode:    providerCode,
		AccountID:       accountID,
		CustomerName:    "CUSTOMER " + accountID,
		CustomerAddress: reason,
		AmountPrevious:  decimal.Zero,
		AmountCurrent:   decimal.Zero,
		AmountTotal:     decimal.Zero,
		Status:          status,
		RawPayload:      payload,
	}
}

// deriveReason picks the most specific human-readable explanation available
// for a no-success payload. Candidates, in order: an error/message field
// inside the string-encoded response_text, the response_text itself as plain
// text, a top-level error field, a status-code-derived message, and finally a
// fixed fallback.
func deriveReason(env *envelope, data *payloadData) string {
	if len(data.ResponseText) > 0 {
		inner, text := decodeStringPayload(data.ResponseText)
		if inner != nil {
			var nested struct {
				Error   string `json:"error"`
				Message string `json:"message"`
				Msg     string `json:"msg"`
			}
			if err := json.Unmarshal(inner, &nested); err == nil {
				for _, candidate := range []string{nested.Error, nested.Message, nested.Msg} {
					if s := strings.TrimSpace(candidate); s != "" {
						return s
					}
				}
			}
		}
		if s := strings.TrimSpace(text); s != "" {
			return s
		}
	}

	if s := strings.TrimSpace(env.Error); s != "" {
		return s
	}
	if s := strings.TrimSpace(env.Message); s != "" {
		return s
	}
	if data.StatusCode != nil {
		return fmt.Sprintf("upstream reported status %d", *data.StatusCode)
	}
	return reasonFallback
}

// decodeStringPayload handles the provider's JSON-within-JSON quirk: a field
// that holds stringified JSON. When raw is a JSON string whose content parses
// as JSON, the inner document is returned; otherwise the string is retained
// as plain text. A sub-parse failure never aborts normalization.
func decodeStringPayload(raw json.RawMessage) (inner json.RawMessage, text string) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Not a string: the field already holds a JSON value.
		if json.Valid(raw) {
			return raw, ""
		}
		return nil, ""
	}

	trimmed := strings.TrimSpace(s)
	if json.Valid([]byte(trimmed)) && len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return json.RawMessage(trimmed), s
	}
	return nil, s
}

// extractAmount tries the amount field candidates in order and returns the
// first parsable non-negative value, defaulting to zero.
func extractAmount(fields map[string]json.RawMessage) decimal.Decimal {
	for _, name := range amountFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		if amount, ok := parseAmount(raw); ok {
			if amount.IsNegative() {
				return decimal.Zero
			}
			return amount
		}
	}
	return decimal.Zero
}

// parseAmount accepts both numeric and string-encoded amounts.
func parseAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	token := strings.TrimSpace(string(raw))
	if token == "" || token == "null" {
		return decimal.Zero, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		token = strings.TrimSpace(s)
	}
	token = strings.ReplaceAll(token, ",", "")

	amount, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// extractString tries the field candidates in order, returning fallback when
// none holds a non-empty string.
func extractString(fields map[string]json.RawMessage, candidates []string, fallback string) string {
	for _, name := range candidates {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

func boolVal(b *bool) bool {
	return b != nil && *b
}
