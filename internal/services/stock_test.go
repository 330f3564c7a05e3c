package services

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/storage"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func billedBill(provider, account string, amount int64) models.Bill {
	return models.Bill{
		Key:          models.BillKey(provider, account),
		ProviderCode: provider,
		AccountID:    account,
		Status:       models.BillStatusBilled,
		AmountTotal:  decimal.NewFromInt(amount),
	}
}

func TestStockImportStagesBilledBills(t *testing.T) {
	ctx := context.Background()
	service := NewStockService(storage.NewMemoryStock(), testLogger())

	resp, err := service.Import(ctx, []models.Bill{
		billedBill("PLN", "A1", 50000),
		billedBill("PLN", "A2", 72000),
	}, "op@example.com")
	require.NoError(t, err)
	require.Equal(t, 2, resp.Imported)
	require.Empty(t, resp.Skipped)

	list, err := service.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	require.Equal(t, "122000", list.AmountTotal.String())
	require.Equal(t, "op@example.com", list.Items[0].ImportedBy)
}

func TestStockImportSkipsNoDebtAndDuplicates(t *testing.T) {
	ctx := context.Background()
	service := NewStockService(storage.NewMemoryStock(), testLogger())

	noDebt := models.Bill{
		Key:          models.BillKey("PLN", "A2"),
		ProviderCode: "PLN",
		AccountID:    "A2",
		Status:       models.BillStatusNoDebt,
		AmountTotal:  decimal.Zero,
	}
	zeroAmount := billedBill("PLN", "A3", 0)

	resp, err := service.Import(ctx, []models.Bill{billedBill("PLN", "A1", 100), noDebt, zeroAmount}, "")
	require.NoError(t, err)
	require.Equal(t, 1, resp.Imported)
	require.Len(t, resp.Skipped, 2)
	require.Equal(t, "no outstanding amount", resp.Skipped[0].Reason)
	require.Equal(t, "no outstanding amount", resp.Skipped[1].Reason)

	// Importing the same bill again is a skip, not an error.
	resp, err = service.Import(ctx, []models.Bill{billedBill("PLN", "A1", 100)}, "")
	require.NoError(t, err)
	require.Equal(t, 0, resp.Imported)
	require.Len(t, resp.Skipped, 1)
	require.Equal(t, "already in stock", resp.Skipped[0].Reason)
}

func TestStockImportRecomputesMissingKey(t *testing.T) {
	ctx := context.Background()
	service := NewStockService(storage.NewMemoryStock(), testLogger())

	bill := billedBill("PLN", "A1", 100)
	bill.Key = ""

	resp, err := service.Import(ctx, []models.Bill{bill}, "")
	require.NoError(t, err)
	require.Equal(t, 1, resp.Imported)

	list, _ := service.List(ctx)
	require.Equal(t, "PLN::A1", list.Items[0].Bill.Key)
}

func TestStockImportSkipsBillWithoutIdentity(t *testing.T) {
	ctx := context.Background()
	service := NewStockService(storage.NewMemoryStock(), testLogger())

	resp, err := service.Import(ctx, []models.Bill{{Status: models.BillStatusBilled, AmountTotal: decimal.NewFromInt(10)}}, "")
	require.NoError(t, err)
	require.Equal(t, 0, resp.Imported)
	require.Len(t, resp.Skipped, 1)
	require.Equal(t, "missing key", resp.Skipped[0].Reason)
}

func TestStockGet(t *testing.T) {
	ctx := context.Background()
	service := NewStockService(storage.NewMemoryStock(), testLogger())

	_, err := service.Import(ctx, []models.Bill{billedBill("PLN", "A1", 50000)}, "op@example.com")
	require.NoError(t, err)

	item, err := service.Get(ctx, "PLN::A1")
	require.NoError(t, err)
	require.Equal(t, "A1", item.Bill.AccountID)
	require.Equal(t, "50000", item.Bill.AmountTotal.String())
	require.Equal(t, "op@example.com", item.ImportedBy)

	_, err = service.Get(ctx, "PLN::missing")
	require.ErrorIs(t, err, ErrStockNotFound)
}

func TestStockRemove(t *testing.T) {
	ctx := context.Background()
	service := NewStockService(storage.NewMemoryStock(), testLogger())

	_, err := service.Import(ctx, []models.Bill{billedBill("PLN", "A1", 100)}, "")
	require.NoError(t, err)

	require.NoError(t, service.Remove(ctx, "PLN::A1"))
	require.ErrorIs(t, service.Remove(ctx, "PLN::A1"), ErrStockNotFound)
}

func TestStockListEmpty(t *testing.T) {
	service := NewStockService(storage.NewMemoryStock(), testLogger())

	list, err := service.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list.Items)
	require.Equal(t, 0, list.Total)
	require.True(t, list.AmountTotal.IsZero())
}
