package service

import (
	"context"
	"fmt"

	"bilet/internal/models"
	"bilet/internal/qr"
	"bilet/internal/repository"
)

type TicketService struct {
	ticketRepo *repository.TicketRepository
}

func NewTicketService(ticketRepo *repository.TicketRepository) *TicketService {
	return &TicketService{ticketRepo: ticketRepo}
}

// List returns the caller's tickets.
func (s *TicketService) List(ctx context.Context, ownerID int64) ([]models.TicketResponse, error) {
	tickets, err := s.ticketRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	result := make([]models.TicketResponse, len(tickets))
	for i, ticket := range tickets {
		result[i] = models.TicketResponse{
			ID:      ticket.ID,
			EventID: ticket.EventID,
			OwnerID: ticket.OwnerID,
			Status:  ticket.Status,
			QRCode:  ticket.QRCode,
		}
	}
	return result, nil
}

// Verify checks a QR token: first structurally, then against the tickets
// table. A token rotated away by a transfer fails the lookup even though it
// is still structurally valid.
func (s *TicketService) Verify(ctx context.Context, token string) (*models.VerifyTicketResponse, error) {
	if !qr.Verify(token) {
		return &models.VerifyTicketResponse{Valid: false}, nil
	}

	ticket, err := s.ticketRepo.GetByQR(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ticket: %w", err)
	}
	if ticket == nil {
		return &models.VerifyTicketResponse{Valid: false}, nil
	}

	return &models.VerifyTicketResponse{
		Valid:    ticket.Status == models.TicketStatusActive,
		TicketID: &ticket.ID,
		Status:   ticket.Status,
	}, nil
}
