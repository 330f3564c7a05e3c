package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/storage"
)

var (
	// ErrNotInStock signals a sell request referenced a key that is not staged.
	ErrNotInStock = errors.New("sales: bill not in stock")
	// ErrBuyerRequired signals a sell request without a counterparty.
	ErrBuyerRequired = errors.New("sales: buyer is required")
)

// SalesService moves staged bills into the immutable history ledger. A sale
// is all-or-nothing: if any requested key is missing from stock the whole
// request is rejected before anything is recorded.
type SalesService struct {
	stock  StockRepository
	sales  SalesRepository
	logger *logrus.Logger
}

// NewSalesService creates a new sales service
func NewSalesService(stock StockRepository, sales SalesRepository, logger *logrus.Logger) *SalesService {
	return &SalesService{stock: stock, sales: sales, logger: logger}
}

// Sell records the sale of the given staged bills and removes them from
// stock. Duplicate keys in the request are collapsed.
func (s *SalesService) Sell(ctx context.Context, req models.SellRequest) (*models.Sale, error) {
	buyer := strings.TrimSpace(req.Buyer)
	if buyer == "" {
		return nil, ErrBuyerRequired
	}

	seen := make(map[string]bool, len(req.Keys))
	keys := make([]string, 0, len(req.Keys))
	for _, key := range req.Keys {
		if key = strings.TrimSpace(key); key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keys given", ErrNotInStock)
	}

	items := make([]models.StockItem, 0, len(keys))
	total := decimal.Zero
	for _, key := range keys {
		item, err := s.stock.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotInStock, key)
		}
		if err != nil {
			return nil, fmt.Errorf("sales: fetch %s: %w", key, err)
		}
		items = append(items, item)
		total = total.Add(item.Bill.AmountTotal)
	}

	sale := models.Sale{
		ID:          uuid.New().String(),
		Buyer:       buyer,
		Note:        strings.TrimSpace(req.Note),
		Items:       items,
		AmountTotal: total,
		CreatedAt:   time.Now(),
	}

	if err := s.sales.Append(ctx, sale); err != nil {
		return nil, fmt.Errorf("sales: record sale: %w", err)
	}

	// The ledger entry is the source of truth; a failed stock removal only
	// leaves a stale inventory row behind, so log and keep going.
	for _, key := range keys {
		if err := s.stock.Remove(ctx, key); err != nil {
			s.logger.WithFields(logrus.Fields{
				"key":     key,
				"sale_id": sale.ID,
				"error":   err.Error(),
			}).Warn("Failed to remove sold item from stock")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"sale_id": sale.ID,
		"buyer":   buyer,
		"items":   len(items),
		"amount":  total.String(),
	}).Info("Sale recorded")

	return &sale, nil
}

// History returns the full sale ledger, oldest first.
func (s *SalesService) History(ctx context.Context) (*models.SalesListResponse, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales: list history: %w", err)
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	return &models.SalesListResponse{Sales: sales, Total: len(sales)}, nil
}
