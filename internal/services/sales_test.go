package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/storage"
)

func newSalesFixture(t *testing.T, bills ...models.Bill) (*SalesService, *StockService) {
	t.Helper()
	stockRepo := storage.NewMemoryStock()
	stockService := NewStockService(stockRepo, testLogger())
	salesService := NewSalesService(stockRepo, storage.NewMemorySales(), testLogger())

	if len(bills) > 0 {
		resp, err := stockService.Import(context.Background(), bills, "op@example.com")
		require.NoError(t, err)
		require.Equal(t, len(bills), resp.Imported)
	}
	return salesService, stockService
}

func TestSellMovesBillsToLedger(t *testing.T) {
	ctx := context.Background()
	salesService, stockService := newSalesFixture(t,
		billedBill("PLN", "A1", 50000),
		billedBill("PLN", "A2", 72000),
	)

	sale, err := salesService.Sell(ctx, models.SellRequest{
		Keys:  []string{"PLN::A1", "PLN::A2"},
		Buyer: " PT Mitra Agen ",
		Note:  "weekly settlement",
	})
	require.NoError(t, err)
	require.NotEmpty(t, sale.ID)
	require.Equal(t, "PT Mitra Agen", sale.Buyer)
	require.Len(t, sale.Items, 2)
	require.Equal(t, "122000", sale.AmountTotal.String())

	// Sold bills leave the inventory.
	list, err := stockService.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, list.Total)

	history, err := salesService.History(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, history.Total)
	require.Equal(t, sale.ID, history.Sales[0].ID)
}

func TestSellIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	salesService, stockService := newSalesFixture(t, billedBill("PLN", "A1", 100))

	_, err := salesService.Sell(ctx, models.SellRequest{
		Keys:  []string{"PLN::A1", "PLN::MISSING"},
		Buyer: "buyer",
	})
	require.ErrorIs(t, err, ErrNotInStock)

	// The staged bill is untouched and no sale was recorded.
	list, _ := stockService.List(ctx)
	require.Equal(t, 1, list.Total)

	history, _ := salesService.History(ctx)
	require.Equal(t, 0, history.Total)
}

func TestSellCollapsesDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	salesService, _ := newSalesFixture(t, billedBill("PLN", "A1", 100))

	sale, err := salesService.Sell(ctx, models.SellRequest{
		Keys:  []string{"PLN::A1", "PLN::A1", " PLN::A1 "},
		Buyer: "buyer",
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	require.Equal(t, "100", sale.AmountTotal.String())
}

func TestSellRequiresBuyer(t *testing.T) {
	salesService, _ := newSalesFixture(t, billedBill("PLN", "A1", 100))

	_, err := salesService.Sell(context.Background(), models.SellRequest{
		Keys:  []string{"PLN::A1"},
		Buyer: "   ",
	})
	require.ErrorIs(t, err, ErrBuyerRequired)
}

func TestSellRejectsEmptyKeyList(t *testing.T) {
	salesService, _ := newSalesFixture(t)

	_, err := salesService.Sell(context.Background(), models.SellRequest{
		Keys:  []string{"", "  "},
		Buyer: "buyer",
	})
	require.ErrorIs(t, err, ErrNotInStock)
}

func TestHistoryEmpty(t *testing.T) {
	salesService, _ := newSalesFixture(t)

	history, err := salesService.History(context.Background())
	require.NoError(t, err)
	require.NotNil(t, history.Sales)
	require.Equal(t, 0, history.Total)
}
