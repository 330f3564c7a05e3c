package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem is a staged bill awaiting sale, keyed by Bill.Key.
type StockItem struct {
	Bill       Bill      `json:"bill"`
	ImportedAt time.Time `json:"imported_at" example:"2024-01-15T10:30:00Z"`
	ImportedBy string    `json:"imported_by,omitempty" example:"operator@billstock.io"`
}

// ImportRequest represents a stock import request
type ImportRequest struct {
	Bills []Bill `json:"bills" binding:"required,min=1"`
}

// SkippedBill explains why a submitted bill was not staged.
type SkippedBill struct {
	Key    string `json:"key" example:"PLN::140012345678"`
	Reason string `json:"reason" example:"already in stock"`
}

// ImportResponse represents a stock import response
type ImportResponse struct {
	Imported  int           `json:"imported" example:"2"`
	Skipped   []SkippedBill `json:"skipped,omitempty"`
	Total     int           `json:"total" example:"3"`
	Timestamp time.Time     `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// StockListResponse represents the current stock inventory
type StockListResponse struct {
	Items       []StockItem     `json:"items"`
	Total       int             `json:"total" example:"12"`
	AmountTotal decimal.Decimal `json:"amount_total"`
}

// SellRequest represents a request to sell staged bills to a counterparty
type SellRequest struct {
	Keys  []string `json:"keys" binding:"required,min=1" example:"PLN::140012345678"`
	Buyer string   `json:"buyer" binding:"required" example:"PT Mitra Agen"`
	Note  string   `json:"note,omitempty" example:"weekly settlement"`
}

// Sale is an immutable history ledger entry. Items carry a full snapshot of
// the sold bills; the stock entries they came from are removed at sell time.
type Sale struct {
	ID          string          `json:"id" example:"3f1d9c2a-7e41-4c8b-9f27-5a0d1b6c8e90"`
	Buyer       string          `json:"buyer" example:"PT Mitra Agen"`
	Note        string          `json:"note,omitempty"`
	Items       []StockItem     `json:"items"`
	AmountTotal decimal.Decimal `json:"amount_total"`
	CreatedAt   time.Time       `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// SalesListResponse represents the sale history ledger
type SalesListResponse struct {
	Sales []Sale `json:"sales"`
	Total int    `json:"total" example:"4"`
}
