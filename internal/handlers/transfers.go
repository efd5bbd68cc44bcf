package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bilet/internal/models"
)

// InitiateTransfer - POST /api/transfers/initiate
// Offer one of the caller's tickets to another user
func (h *Handlers) InitiateTransfer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.InitiateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Transfers.Initiate(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "Failed to initiate transfer")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// AcceptTransfer - PATCH /api/transfers/accept
// Accept a pending offer addressed to the caller
func (h *Handlers) AcceptTransfer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.RespondTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Transfers.Accept(c.Request.Context(), userID, req.TicketID)
	if err != nil {
		respondError(c, err, "Failed to accept transfer")
		return
	}

	c.JSON(http.StatusOK, response)
}

// RejectTransfer - PATCH /api/transfers/reject
func (h *Handlers) RejectTransfer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.RespondTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Transfers.Reject(c.Request.Context(), userID, req.TicketID)
	if err != nil {
		respondError(c, err, "Failed to reject transfer")
		return
	}

	c.JSON(http.StatusOK, response)
}
