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

// SalesHandler handles sell and history requests
type SalesHandler struct {
	salesService services.SalesServiceInterface
	logger       *logrus.Logger
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(salesService services.SalesServiceInterface, logger *logrus.Logger) *SalesHandler {
	return &SalesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

// Sell moves staged bills into the sale ledger
// @Summary Sell staged bills
// @Tags Sales
// @Accept json
// @Produce json
// @Param request body models.SellRequest true "Keys to sell and the buyer"
// @Success 200 {object} models.Sale
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /sales [post]
func (h *SalesHandler) Sell(c *gin.Context) {
	requestID := c.GetString("request_id")

	var request models.SellRequest
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

	sale, err := h.salesService.Sell(c.Request.Context(), request)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBuyerRequired):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "Invalid request",
				Message:   err.Error(),
				Code:      "INVALID_REQUEST",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
		case errors.Is(err, services.ErrNotInStock):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:     "Not in stock",
				Message:   err.Error(),
				Code:      "NOT_IN_STOCK",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
		default:
			h.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to record sale")

			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "Internal server error",
				Message:   "An unexpected error occurred while recording the sale",
				Code:      "SALE_ERROR",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
		}
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"sale_id":    sale.ID,
		"buyer":      sale.Buyer,
		"items":      len(sale.Items),
	}).Info("Sale recorded")

	c.JSON(http.StatusOK, sale)
}

// History returns the full sale ledger
// @Summary List sale history
// @Tags Sales
// @Produce json
// @Success 200 {object} models.SalesListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /sales [get]
func (h *SalesHandler) History(c *gin.Context) {
	response, err := h.salesService.History(c.Request.Context())
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Failed to list sale history")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "An unexpected error occurred while listing sales",
			Code:      "SALES_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, response)
}
