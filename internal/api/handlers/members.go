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

// MembersHandler handles member management and login requests
type MembersHandler struct {
	memberService services.MemberServiceInterface
	logger        *logrus.Logger
}

// NewMembersHandler creates a new members handler
func NewMembersHandler(memberService services.MemberServiceInterface, logger *logrus.Logger) *MembersHandler {
	return &MembersHandler{
		memberService: memberService,
		logger:        logger,
	}
}

// Login verifies credentials and returns a bearer token
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (h *MembersHandler) Login(c *gin.Context) {
	var request models.LoginRequest
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

	response, err := h.memberService.Login(c.Request.Context(), request)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"email":      request.Email,
			}).Warn("Login failed")

			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:     "Unauthorized",
				Message:   "Invalid email or password",
				Code:      "INVALID_CREDENTIALS",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}

		h.internalError(c, err, "Failed to process login")
		return
	}

	c.JSON(http.StatusOK, response)
}

// Create registers a new member
// @Summary Create a member
// @Tags Members
// @Accept json
// @Produce json
// @Param request body models.CreateMemberRequest true "New member"
// @Success 201 {object} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /members [post]
func (h *MembersHandler) Create(c *gin.Context) {
	var request models.CreateMemberRequest
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

	member, err := h.memberService.Create(c.Request.Context(), request)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "Weak password",
				Message:   err.Error(),
				Code:      "WEAK_PASSWORD",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:     "Email taken",
				Message:   err.Error(),
				Code:      "EMAIL_TAKEN",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
		default:
			h.internalError(c, err, "Failed to create member")
		}
		return
	}

	c.JSON(http.StatusCreated, member)
}

// Get fetches a member by id
// @Summary Get a member
// @Tags Members
// @Produce json
// @Param id path string true "Member id"
// @Success 200 {object} models.Member
// @Failure 404 {object} models.ErrorResponse
// @Router /members/{id} [get]
func (h *MembersHandler) Get(c *gin.Context) {
	member, err := h.memberService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			h.notFound(c)
			return
		}
		h.internalError(c, err, "Failed to get member")
		return
	}

	c.JSON(http.StatusOK, member)
}

// List returns all members
// @Summary List members
// @Tags Members
// @Produce json
// @Success 200 {array} models.Member
// @Router /members [get]
func (h *MembersHandler) List(c *gin.Context) {
	members, err := h.memberService.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to list members")
		return
	}

	c.JSON(http.StatusOK, members)
}

// Update applies partial changes to a member
// @Summary Update a member
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Member id"
// @Param request body models.UpdateMemberRequest true "Changes"
// @Success 200 {object} models.Member
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /members/{id} [put]
func (h *MembersHandler) Update(c *gin.Context) {
	var request models.UpdateMemberRequest
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

	member, err := h.memberService.Update(c.Request.Context(), c.Param("id"), request)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			h.notFound(c)
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "Weak password",
				Message:   err.Error(),
				Code:      "WEAK_PASSWORD",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
		default:
			h.internalError(c, err, "Failed to update member")
		}
		return
	}

	c.JSON(http.StatusOK, member)
}

// Delete removes a member
// @Summary Delete a member
// @Tags Members
// @Param id path string true "Member id"
// @Success 204 "No Content"
// @Failure 404 {object} models.ErrorResponse
// @Router /members/{id} [delete]
func (h *MembersHandler) Delete(c *gin.Context) {
	err := h.memberService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			h.notFound(c)
			return
		}
		h.internalError(c, err, "Failed to delete member")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MembersHandler) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:     "Not found",
		Message:   "No member with this id",
		Code:      "MEMBER_NOT_FOUND",
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

func (h *MembersHandler) internalError(c *gin.Context, err error, message string) {
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"error":      err.Error(),
	}).Error(message)

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:     "Internal server error",
		Message:   "An unexpected error occurred",
		Code:      "INTERNAL_ERROR",
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
