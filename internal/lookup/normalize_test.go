package lookup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/billstock/billstock-api/internal/models"
)

func TestNormalizeBilledPayload(t *testing.T) {
	payload := json.RawMessage(`{
		"success": true,
		"data": {
			"success": true,
			"bills": [{
				"moneyAmount": 50000,
				"customer_name": "BUDI SANTOSO",
				"customer_address": "JL MERDEKA NO 1",
				"billing_month": "202508"
			}]
		}
	}`)

	bill := Normalize(payload, "140012345678", "PLN")

	require.Equal(t, "PLN::140012345678", bill.Key)
	require.Equal(t, models.BillStatusBilled, bill.Status)
	require.Equal(t, "BUDI SANTOSO", bill.CustomerName)
	require.Equal(t, "JL MERDEKA NO 1", bill.CustomerAddress)
	require.Equal(t, "202508", bill.BillingMonth)
	require.True(t, bill.AmountTotal.Equal(bill.AmountCurrent))
	require.Equal(t, "50000", bill.AmountTotal.String())
}

func TestNormalizeAmountFieldPrecedence(t *testing.T) {
	payload := json.RawMessage(`{
		"success": true,
		"data": {"success": true, "bills": [{"moneyAmount": 100, "money_amount": 200, "amount": 300}]}
	}`)
	bill := Normalize(payload, "A1", "PLN")
	require.Equal(t, "100", bill.AmountTotal.String())

	payload = json.RawMessage(`{
		"success": true,
		"data": {"success": true, "bills": [{"money_amount": 200, "amount": 300}]}
	}`)
	bill = Normalize(payload, "A1", "PLN")
	require.Equal(t, "200", bill.AmountTotal.String())

	payload = json.RawMessage(`{
		"success": true,
		"data": {"success": true, "bills": [{"amount": 300}]}
	}`)
	bill = Normalize(payload, "A1", "PLN")
	require.Equal(t, "300", bill.AmountTotal.String())
}

func TestNormalizeStringAmountWithSeparators(t *testing.T) {
	payload := json.RawMessage(`{
		"success": true,
		"data": {"success": true, "bills": [{"amount": "1,250,000.50"}]}
	}`)

	bill := Normalize(payload, "A1", "PLN")
	require.Equal(t, "1250000.5", bill.AmountTotal.String())
}

func TestNormalizeNegativeAmountClampsToZero(t *testing.T) {
	payload := json.RawMessage(`{
		"success": true,
		"data": {"success": true, "bills": [{"moneyAmount": -500}]}
	}`)

	bill := Normalize(payload, "A1", "PLN")
	require.True(t, bill.AmountTotal.IsZero())
	require.Equal(t, models.BillStatusBilled, bill.Status)
}

func TestNormalizeGarbagePayload(t *testing.T) {
	bill := Normalize(json.RawMessage(`{{{not json`), "A1", "PLN")

	require.Equal(t, models.BillStatusParseError, bill.Status)
	require.Equal(t, "CUSTOMER A1", bill.CustomerName)
	require.Equal(t, reasonParseError, bill.CustomerAddress)
	require.True(t, bill.AmountTotal.IsZero())
}

func TestNormalizeNullPayload(t *testing.T) {
	bill := Normalize(json.RawMessage(`null`), "A1", "PLN")

	require.Equal(t, models.BillStatusNoDebt, bill.Status)
	require.Equal(t, reasonFallback, bill.CustomerAddress)
	require.True(t, bill.AmountTotal.IsZero())
}

func TestNormalizeReasonFromNestedResponseText(t *testing.T) {
	// response_text carries JSON re-encoded as a string.
	payload := json.RawMessage(`{
		"success": true,
		"data": {
			"success": false,
			"response_text": "{\"error\": \"account is inactive\"}"
		}
	}`)

	bill := Normalize(payload, "A1", "PLN")
	require.Equal(t, models.BillStatusNoDebt, bill.Status)
	require.Equal(t, "account is inactive", bill.CustomerAddress)
}

func TestNormalizeReasonFromPlainResponseText(t *testing.T) {
	payload := json.RawMessage(`{
		"success": true,
		"data": {"success": false, "response_text": "tagihan tidak ditemukan"}
	}`)

	bill := Normalize(payload, "A1", "PLN")
	require.Equal(t, "tagihan tidak ditemukan", bill.CustomerAddress)
}

func TestNormalizeReasonFromTopLevelError(t *testing.T) {
	payload := json.RawMessage(`{"success": false, "error": "provider offline"}`)

	bill := Normalize(payload, "A1", "PLN")
	require.Equal(t, models.BillStatusNoDebt, bill.Status)
	require.Equal(t, "provider offline", bill.CustomerAddress)
}

func TestNormalizeReasonFromStatusCode(t *testing.T) {
	payload := json.RawMessage(`{"success": true, "data": {"success": false, "status_code": 404}}`)

	bill := Normalize(payload, "A1", "PLN")
	require.Equal(t, "upstream reported status 404", bill.CustomerAddress)
}

func TestNormalizeEmptyBillListIsNoDebt(t *testing.T) {
	payload := json.RawMessage(`{"success": true, "data": {"success": true, "bills": []}}`)

	bill := Normalize(payload, "A1", "PLN")
	require.Equal(t, models.BillStatusNoDebt, bill.Status)
	require.Equal(t, reasonFallback, bill.CustomerAddress)
}

func TestNormalizeMissingFieldsUsePlaceholders(t *testing.T) {
	payload := json.RawMessage(`{"success": true, "data": {"success": true, "bills": [{}]}}`)

	bill := Normalize(payload, "A1", "PLN")
	require.Equal(t, models.BillStatusBilled, bill.Status)
	require.Equal(t, placeholderName, bill.CustomerName)
	require.Equal(t, placeholderAddress, bill.CustomerAddress)
	require.True(t, bill.AmountTotal.IsZero())
}

func TestNormalizeNoDebtFromJSONPreview(t *testing.T) {
	preview := `{"success": false, "data": {"status_code": 400, "success": false}}`

	bill := NormalizeNoDebt(preview, "A2", "PLN")
	require.Equal(t, models.BillStatusNoDebt, bill.Status)
	require.Equal(t, "PLN::A2", bill.Key)
	require.Equal(t, "upstream reported status 400", bill.CustomerAddress)
	require.True(t, bill.AmountTotal.IsZero())
}

func TestNormalizeNoDebtFromPlainTextPreview(t *testing.T) {
	bill := NormalizeNoDebt("  no outstanding bill  ", "A2", "PLN")
	require.Equal(t, "no outstanding bill", bill.CustomerAddress)
}

func TestNormalizeNoDebtFromEmptyPreview(t *testing.T) {
	bill := NormalizeNoDebt("", "A2", "PLN")
	require.Equal(t, reasonFallback, bill.CustomerAddress)
	require.Equal(t, models.BillStatusNoDebt, bill.Status)
}
