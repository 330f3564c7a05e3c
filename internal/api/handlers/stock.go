package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/services"
)

// StockHandler handles stock inventory requests
type StockHandler struct {
	stockService services.StockServiceInterface
	logger       *logrus.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stockService services.StockServiceInterface, logger *logrus.Logger) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// Import stages accepted bills into stock
// @Summary Import bills into stock
// @Tags Stock
// @Accept json
// @Produce json
// @Param request body models.ImportRequest true "Bills to stage"
// @Success 200 {object} models.ImportResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /stock/import [post]
func (h *StockHandler) Import(c *gin.Context) {
	requestID := c.GetString("request_id")

	var request models.ImportRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid request format",
			Message:   err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	importedBy := c.GetString("member_id")
	response, err := h.stockService.Import(c.Request.Context(), request.Bills, importedBy)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to import bills into stock")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "An unexpected error occurred while importing bills",
			Code:      "IMPORT_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// List returns the current stock inventory
// @Summary List stock
// @Tags Stock
// @Produce json
// @Success 200 {object} models.StockListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /stock [get]
func (h *StockHandler) List(c *gin.Context) {
	response, err := h.stockService.List(c.Request.Context())
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Failed to list stock")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "An unexpected error occurred while listing stock",
			Code:      "STOCK_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Get returns a single staged bill by key
// @Summary Get a staged bill
// @Tags Stock
// @Produce json
// @Param key path string true "Bill key (provider::account)"
// @Success 200 {object} models.StockItem
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /stock/{key} [get]
func (h *StockHandler) Get(c *gin.Context) {
	key := c.Param("key")

	item, err := h.stockService.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, services.ErrStockNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "Not found",
				Message:   "No staged bill with this key",
				Code:      "STOCK_NOT_FOUND",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}

		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"key":        key,
			"error":      err.Error(),
		}).Error("Failed to load staged bill")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "An unexpected error occurred while loading the bill",
			Code:      "STOCK_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, item)
}

// Remove drops a staged bill from stock by key
// @Summary Remove a staged bill
// @Tags Stock
// @Produce json
// @Param key path string true "Bill key (provider::account)"
// @Success 204 "No Content"
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /stock/{key} [delete]
func (h *StockHandler) Remove(c *gin.Context) {
	key := c.Param("key")

	err := h.stockService.Remove(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, services.ErrStockNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "Not found",
				Message:   "No staged bill with this key",
				Code:      "STOCK_NOT_FOUND",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}

		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"key":        key,
			"error":      err.Error(),
		}).Error("Failed to remove staged bill")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "An unexpected error occurred while removing the bill",
			Code:      "STOCK_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
