package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/services"
)

// ExportHandler streams stock and sales snapshots as CSV attachments
type ExportHandler struct {
	stockService services.StockServiceInterface
	salesService services.SalesServiceInterface
	logger       *logrus.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(stockService services.StockServiceInterface, salesService services.SalesServiceInterface, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{
		stockService: stockService,
		salesService: salesService,
		logger:       logger,
	}
}

// ExportStock downloads the current inventory as CSV
// @Summary Export stock as CSV
// @Tags Export
// @Produce text/csv
// @Success 200 {string} string "CSV file"
// @Failure 500 {object} models.ErrorResponse
// @Router /export/stock.csv [get]
func (h *ExportHandler) ExportStock(c *gin.Context) {
	stock, err := h.stockService.List(c.Request.Context())
	if err != nil {
		h.exportError(c, err, "Failed to export stock")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="stock.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"key", "provider_code", "account_id", "customer_name", "billing_month", "amount_total", "status", "imported_at", "imported_by"})
	for _, item := range stock.Items {
		_ = w.Write([]string{
			item.Bill.Key,
			item.Bill.ProviderCode,
			item.Bill.AccountID,
			item.Bill.CustomerName,
			item.Bill.BillingMonth,
			item.Bill.AmountTotal.String(),
			item.Bill.Status,
			item.ImportedAt.Format(time.RFC3339),
			item.ImportedBy,
		})
	}
	w.Flush()
}

// ExportSales downloads the sale ledger as CSV, one row per sold bill
// @Summary Export sale history as CSV
// @Tags Export
// @Produce text/csv
// @Success 200 {string} string "CSV file"
// @Failure 500 {object} models.ErrorResponse
// @Router /export/sales.csv [get]
func (h *ExportHandler) ExportSales(c *gin.Context) {
	sales, err := h.salesService.History(c.Request.Context())
	if err != nil {
		h.exportError(c, err, "Failed to export sales")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="sales.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"sale_id", "buyer", "created_at", "key", "account_id", "customer_name", "amount_total", "items", "sale_amount_total"})
	for _, sale := range sales.Sales {
		for _, item := range sale.Items {
			_ = w.Write([]string{
				sale.ID,
				sale.Buyer,
				sale.CreatedAt.Format(time.RFC3339),
				item.Bill.Key,
				item.Bill.AccountID,
				item.Bill.CustomerName,
				item.Bill.AmountTotal.String(),
				fmt.Sprintf("%d", len(sale.Items)),
				sale.AmountTotal.String(),
			})
		}
	}
	w.Flush()
}

func (h *ExportHandler) exportError(c *gin.Context, err error, message string) {
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"error":      err.Error(),
	}).Error(message)

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:     "Internal server error",
		Message:   message,
		Code:      "EXPORT_ERROR",
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
