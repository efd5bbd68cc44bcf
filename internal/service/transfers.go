package service

import (
	"context"
	"fmt"

	"bilet/internal/clock"
	apperrors "bilet/internal/errors"
	"bilet/internal/logger"
	"bilet/internal/models"
	"bilet/internal/monitoring"
	"bilet/internal/qr"
)

// TransferService runs the peer-to-peer ticket hand-over:
// pending -> accepted | rejected | expired. It never touches event stock.
// Accepting rotates the QR token, so the snapshot taken at initiation can
// never admit anyone afterwards.
type TransferService struct {
	tx        TxRunner
	events    EventStore
	tickets   TicketStore
	transfers TransferStore
	users     UserStore
	publisher Publisher
	clock     clock.Clock
}

func NewTransferService(tx TxRunner, events EventStore, tickets TicketStore, transfers TransferStore, users UserStore, publisher Publisher, clk clock.Clock) *TransferService {
	return &TransferService{
		tx:        tx,
		events:    events,
		tickets:   tickets,
		transfers: transfers,
		users:     users,
		publisher: publisher,
		clock:     clk,
	}
}

// Initiate offers a ticket to the user behind receiverEmail. The ticket must
// be the caller's, ACTIVE, and its event must not have started.
func (s *TransferService) Initiate(ctx context.Context, fromUserID int64, req *models.InitiateTransferRequest) (*models.TransferResponse, error) {
	now := s.clock.Now()
	var transfer models.TicketTransfer

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetForUpdate(ctx, req.TicketID)
		if err != nil {
			return fmt.Errorf("failed to get ticket: %w", err)
		}
		if ticket == nil || ticket.OwnerID != fromUserID {
			return fmt.Errorf("ticket %d: %w", req.TicketID, apperrors.ErrNotFound)
		}
		if ticket.Status == models.TicketStatusUsed {
			return fmt.Errorf("ticket %d already used: %w", ticket.ID, apperrors.ErrConflict)
		}
		if ticket.Status != models.TicketStatusActive {
			return fmt.Errorf("ticket %d is %s: %w", ticket.ID, ticket.Status, apperrors.ErrInvalidState)
		}

		event, err := s.events.GetByID(ctx, ticket.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return fmt.Errorf("event %d: %w", ticket.EventID, apperrors.ErrNotFound)
		}
		if event.HasStartedAt(now) {
			return fmt.Errorf("event %d already started: %w", event.ID, apperrors.ErrInvalidState)
		}

		receiver, err := s.users.GetByEmail(ctx, req.ReceiverEmail)
		if err != nil {
			return fmt.Errorf("failed to look up receiver: %w", err)
		}
		if receiver == nil {
			return fmt.Errorf("receiver %s: %w", req.ReceiverEmail, apperrors.ErrNotFound)
		}
		if receiver.UserID == fromUserID {
			return fmt.Errorf("cannot transfer a ticket to yourself: %w", apperrors.ErrConflict)
		}

		existing, err := s.transfers.GetPendingByTicketID(ctx, ticket.ID)
		if err != nil {
			return fmt.Errorf("failed to check pending transfers: %w", err)
		}
		if existing != nil {
			if !existing.IsDueAt(now) {
				return fmt.Errorf("ticket %d already has a pending transfer: %w",
					ticket.ID, apperrors.ErrConflict)
			}
			// Stale offer: expire it lazily so a fresh one can replace it.
			if err := s.transfers.MarkResponded(ctx, existing.ID, models.TransferStatusExpired, nil); err != nil {
				return err
			}
		}

		transfer = models.TicketTransfer{
			TicketID:   ticket.ID,
			FromUserID: fromUserID,
			ToUserID:   receiver.UserID,
			Status:     models.TransferStatusPending,
			ExpiresAt:  now.Add(TransferTTL),
			OldQR:      ticket.QRCode,
		}
		return s.transfers.Create(ctx, &transfer)
	})
	if err != nil {
		monitoring.ObserveTransfer("initiate", "error")
		return nil, err
	}

	monitoring.ObserveTransfer("initiate", "ok")
	publish(ctx, s.publisher, models.EventTransferInitiated, models.TransferInitiatedEvent{
		TransferID: transfer.ID,
		TicketID:   transfer.TicketID,
		FromUserID: transfer.FromUserID,
		ToUserID:   transfer.ToUserID,
		ExpiresAt:  transfer.ExpiresAt,
		Timestamp:  now,
	})

	return transferResponse(&transfer), nil
}

// Accept completes a transfer: the receiver takes ownership and the ticket
// gets a brand-new QR token. The old token never matches a ticket again.
func (s *TransferService) Accept(ctx context.Context, toUserID, ticketID int64) (*models.TransferResponse, error) {
	return s.respond(ctx, toUserID, ticketID, models.TransferStatusAccepted)
}

// Reject declines a transfer; the ticket and its ownership are untouched.
func (s *TransferService) Reject(ctx context.Context, toUserID, ticketID int64) (*models.TransferResponse, error) {
	return s.respond(ctx, toUserID, ticketID, models.TransferStatusRejected)
}

func (s *TransferService) respond(ctx context.Context, toUserID, ticketID int64, decision string) (*models.TransferResponse, error) {
	now := s.clock.Now()
	var transfer *models.TicketTransfer
	var expired bool

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		transfer, err = s.transfers.GetPendingForReceiver(ctx, ticketID, toUserID)
		if err != nil {
			return fmt.Errorf("failed to get transfer: %w", err)
		}
		if transfer == nil {
			return fmt.Errorf("pending transfer for ticket %d: %w", ticketID, apperrors.ErrNotFound)
		}

		if transfer.IsDueAt(now) {
			// Offer timed out. Persist the expiry and refuse the response.
			expired = true
			transfer.Status = models.TransferStatusExpired
			return s.transfers.MarkResponded(ctx, transfer.ID, models.TransferStatusExpired, nil)
		}

		if decision == models.TransferStatusAccepted {
			ticket, err := s.tickets.GetForUpdate(ctx, ticketID)
			if err != nil {
				return fmt.Errorf("failed to get ticket: %w", err)
			}
			if ticket == nil {
				return fmt.Errorf("ticket %d: %w", ticketID, apperrors.ErrNotFound)
			}
			if ticket.Status != models.TicketStatusActive {
				return fmt.Errorf("ticket %d is %s: %w", ticket.ID, ticket.Status, apperrors.ErrConflict)
			}

			newQR := qr.Mint(ticket.EventID, toUserID)
			if err := s.tickets.Reassign(ctx, ticket.ID, toUserID, newQR); err != nil {
				return err
			}
		}

		respondedAt := now
		transfer.Status = decision
		transfer.RespondedAt = &respondedAt
		return s.transfers.MarkResponded(ctx, transfer.ID, decision, &respondedAt)
	})
	if err != nil {
		monitoring.ObserveTransfer(decision, "error")
		return nil, err
	}

	if expired {
		monitoring.ObserveTransfer(decision, "expired")
		publish(ctx, s.publisher, models.EventTransferExpired, models.TransferExpiredEvent{
			TransferID: transfer.ID,
			TicketID:   transfer.TicketID,
			Timestamp:  now,
		})
		return nil, fmt.Errorf("transfer %d: %w", transfer.ID, apperrors.ErrExpired)
	}

	monitoring.ObserveTransfer(decision, "ok")
	if decision == models.TransferStatusAccepted {
		publish(ctx, s.publisher, models.EventTransferAccepted, models.TransferAcceptedEvent{
			TransferID: transfer.ID,
			TicketID:   transfer.TicketID,
			FromUserID: transfer.FromUserID,
			ToUserID:   transfer.ToUserID,
			Timestamp:  now,
		})
	} else {
		publish(ctx, s.publisher, models.EventTransferRejected, models.TransferRejectedEvent{
			TransferID: transfer.ID,
			TicketID:   transfer.TicketID,
			Timestamp:  now,
		})
	}

	return transferResponse(transfer), nil
}

// ExpireDue sweeps pending transfers past their deadline, one transaction
// per transfer, re-checking under the row lock. Same discipline as the
// reservation sweep.
func (s *TransferService) ExpireDue(ctx context.Context) (int, error) {
	now := s.clock.Now()

	due, err := s.transfers.GetDuePending(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get due transfers: %w", err)
	}

	expired := 0
	for i := range due {
		transfer := &due[i]
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			current, err := s.transfers.GetPendingForReceiver(ctx, transfer.TicketID, transfer.ToUserID)
			if err != nil {
				return err
			}
			if current == nil || !current.IsDueAt(now) {
				return nil
			}
			*transfer = *current
			transfer.Status = models.TransferStatusExpired
			return s.transfers.MarkResponded(ctx, current.ID, models.TransferStatusExpired, nil)
		})
		if err != nil {
			logger.WithContext(ctx).Error("Failed to expire transfer",
				"error", err,
				"transfer_id", transfer.ID)
			continue
		}
		if transfer.Status == models.TransferStatusExpired {
			expired++
			publish(ctx, s.publisher, models.EventTransferExpired, models.TransferExpiredEvent{
				TransferID: transfer.ID,
				TicketID:   transfer.TicketID,
				Timestamp:  now,
			})
		}
	}

	return expired, nil
}

func transferResponse(transfer *models.TicketTransfer) *models.TransferResponse {
	return &models.TransferResponse{
		ID:          transfer.ID,
		TicketID:    transfer.TicketID,
		FromUserID:  transfer.FromUserID,
		ToUserID:    transfer.ToUserID,
		Status:      transfer.Status,
		ExpiresAt:   transfer.ExpiresAt,
		RespondedAt: transfer.RespondedAt,
	}
}
