package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/billstock/billstock-api/internal/lookup"
	"github.com/billstock/billstock-api/internal/models"
	"github.com/billstock/billstock-api/internal/services"
	"github.com/billstock/billstock-api/internal/utils"
)

// BillsHandler handles bill inquiry requests
type BillsHandler struct {
	lookupService services.LookupServiceInterface
	logger        *logrus.Logger
}

// NewBillsHandler creates a new bills handler
func NewBillsHandler(lookupService services.LookupServiceInterface, logger *logrus.Logger) *BillsHandler {
	return &BillsHandler{
		lookupService: lookupService,
		logger:        logger,
	}
}

// InquireBatch handles batch bill inquiry
// @Summary Inquire a batch of bills
// @Description Resolve outstanding bills for a batch of account ids against the upstream provider
// @Tags Bills
// @Accept json
// @Produce json
// @Param request body models.BatchRequest true "Batch inquiry request"
// @Success 200 {object} models.BatchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /bills/inquiry [post]
func (h *BillsHandler) InquireBatch(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")

	var request models.BatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Invalid batch request format")

		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid request format",
			Message:   err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	// Clean account ids, preserving submission order
	cleaned := make([]string, 0, len(request.AccountIDs))
	validCount := 0
	for _, accountID := range request.AccountIDs {
		id := utils.CleanAccountID(accountID)
		if utils.IsValidAccountID(id) {
			validCount++
		}
		cleaned = append(cleaned, id)
	}

	if validCount == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "No valid account ids provided",
			Message:   "All provided account ids are invalid",
			Code:      "NO_VALID_ACCOUNTS",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":    requestID,
		"provider_code": request.ProviderCode,
		"account_ids":   len(request.AccountIDs),
		"valid":         validCount,
	}).Info("Processing batch bill inquiry")

	results, err := h.lookupService.InquireBatch(c.Request.Context(), request.ProviderCode, cleaned)
	if err != nil {
		switch {
		case errors.Is(err, lookup.ErrEmptyProviderCode),
			errors.Is(err, lookup.ErrNoAccountIDs),
			errors.Is(err, lookup.ErrBatchTooLarge):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "Invalid batch request",
				Message:   err.Error(),
				Code:      "INVALID_BATCH",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
		default:
			h.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
				"duration":   time.Since(start),
			}).Error("Failed to process batch bill inquiry")

			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "Internal server error",
				Message:   "An unexpected error occurred while processing batch request",
				Code:      "BATCH_ERROR",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
		}
		return
	}

	duration := time.Since(start)
	successCount := 0
	errorCount := 0

	for _, result := range results {
		if result.OK {
			successCount++
		} else {
			errorCount++
		}
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"total":      len(results),
		"success":    successCount,
		"errors":     errorCount,
		"duration":   duration,
	}).Info("Batch bill inquiry completed")

	response := models.BatchResponse{
		Results:    results,
		Total:      len(results),
		Success:    successCount,
		Errors:     errorCount,
		DurationMs: duration.Milliseconds(),
		Timestamp:  time.Now(),
	}

	c.JSON(http.StatusOK, response)
}
