package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bilet/internal/models"
)

// ListTickets - GET /api/tickets
// List the caller's tickets
func (h *Handlers) ListTickets(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	response, err := h.services.Tickets.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list tickets")
		return
	}

	c.JSON(http.StatusOK, response)
}

// VerifyTicket - POST /api/tickets/verify
// Check a QR token and report whether it belongs to an active ticket
func (h *Handlers) VerifyTicket(c *gin.Context) {
	var req models.VerifyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Tickets.Verify(c.Request.Context(), req.QRCode)
	if err != nil {
		respondError(c, err, "Failed to verify ticket")
		return
	}

	c.JSON(http.StatusOK, response)
}
