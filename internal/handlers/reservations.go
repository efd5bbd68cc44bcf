package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bilet/internal/models"
)

// Reservations handlers

// CreateReservation - POST /api/reservations
// Place a hold on event stock
func (h *Handlers) CreateReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Reservations.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "Failed to create reservation")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListReservations - GET /api/reservations
// List the caller's reservations
func (h *Handlers) ListReservations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	response, err := h.services.Reservations.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list reservations")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetReservation - GET /api/reservations/:id
func (h *Handlers) GetReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	response, err := h.services.Reservations.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "Failed to get reservation")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CancelReservation - PATCH /api/reservations/cancel
// Cancel a pending hold and release its stock
func (h *Handlers) CancelReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Reservations.Cancel(c.Request.Context(), userID, req.ReservationID); err != nil {
		respondError(c, err, "Failed to cancel reservation")
		return
	}

	c.Status(http.StatusOK)
}

// PayReservation - PATCH /api/reservations/pay
// Settle a pending hold into a payment and tickets
func (h *Handlers) PayReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.PayReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Settlement.Pay(c.Request.Context(), userID, req.ReservationID)
	if err != nil {
		respondError(c, err, "Failed to pay reservation")
		return
	}

	c.JSON(http.StatusOK, response)
}
