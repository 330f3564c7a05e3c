package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/storage"
)

// ErrStockNotFound signals the requested stock key does not exist.
var ErrStockNotFound = errors.New("stock: item not found")

// StockService stages accepted bills into the inventory. Import is
// idempotent per key: a bill already in stock is skipped, not overwritten.
type StockService struct {
	repo   StockRepository
	logger *logrus.Logger
}

// NewStockService creates a new stock service
func NewStockService(repo StockRepository, logger *logrus.Logger) *StockService {
	return &StockService{repo: repo, logger: logger}
}

// Import stages the given bills. Bills without an outstanding amount and
// bills whose key is already staged are reported in Skipped instead of
// failing the whole import.
func (s *StockService) Import(ctx context.Context, bills []models.Bill, importedBy string) (*models.ImportResponse, error) {
	now := time.Now()
	resp := &models.ImportResponse{Total: len(bills), Timestamp: now}

	for _, bill := range bills {
		if bill.Key == "" {
			if bill.ProviderCode == "" || bill.AccountID == "" {
				resp.Skipped = append(resp.Skipped, models.SkippedBill{
					Key:    bill.Key,
					Reason: "missing key",
				})
				continue
			}
			bill.Key = models.BillKey(bill.ProviderCode, bill.AccountID)
		}

		if bill.Status != models.BillStatusBilled || !bill.AmountTotal.IsPositive() {
			resp.Skipped = append(resp.Skipped, models.SkippedBill{
				Key:    bill.Key,
				Reason: "no outstanding amount",
			})
			continue
		}

		err := s.repo.Put(ctx, models.StockItem{Bill: bill, ImportedAt: now, ImportedBy: importedBy})
		if errors.Is(err, storage.ErrDuplicateKey) {
			resp.Skipped = append(resp.Skipped, models.SkippedBill{
				Key:    bill.Key,
				Reason: "already in stock",
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stock: import %s: %w", bill.Key, err)
		}
		resp.Imported++
	}

	s.logger.WithFields(logrus.Fields{
		"imported": resp.Imported,
		"skipped":  len(resp.Skipped),
		"total":    resp.Total,
	}).Info("Stock import completed")

	return resp, nil
}

// Get returns a single staged bill by key.
func (s *StockService) Get(ctx context.Context, key string) (*models.StockItem, error) {
	item, err := s.repo.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stock: get %s: %w", key, err)
	}
	return &item, nil
}

// List returns the current inventory with its total outstanding amount.
func (s *StockService) List(ctx context.Context) (*models.StockListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock: list: %w", err)
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Bill.AmountTotal)
	}

	if items == nil {
		items = []models.StockItem{}
	}
	return &models.StockListResponse{Items: items, Total: len(items), AmountTotal: total}, nil
}

// Remove drops a staged bill by key.
func (s *StockService) Remove(ctx context.Context, key string) error {
	err := s.repo.Remove(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrStockNotFound
	}
	if err != nil {
		return fmt.Errorf("stock: remove %s: %w", key, err)
	}
	return nil
}
