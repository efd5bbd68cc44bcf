package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bilet/internal/clock"
	apperrors "bilet/internal/errors"
	"bilet/internal/logger"
	"bilet/internal/models"
	"bilet/internal/monitoring"
	"bilet/internal/qr"
)

// SettlementService converts a PENDING reservation into a payment record and
// its tickets. It is the only path allowed to mint tickets. Expiry-on-read
// takes precedence over settlement: a past-due hold is expired and the
// payment refused, even if the sweeper has not run yet.
type SettlementService struct {
	tx           TxRunner
	events       EventStore
	reservations ReservationStore
	payments     PaymentStore
	tickets      TicketStore
	gateway      ChargeClient
	publisher    Publisher
	clock        clock.Clock
}

func NewSettlementService(tx TxRunner, events EventStore, reservations ReservationStore, payments PaymentStore, tickets TicketStore, gateway ChargeClient, publisher Publisher, clk clock.Clock) *SettlementService {
	return &SettlementService{
		tx:           tx,
		events:       events,
		reservations: reservations,
		payments:     payments,
		tickets:      tickets,
		gateway:      gateway,
		publisher:    publisher,
		clock:        clk,
	}
}

// Pay settles a reservation. The gateway charge happens before the
// settlement transaction; if the transaction then finds the hold expired or
// already finalized, the charge is reversed best-effort.
func (s *SettlementService) Pay(ctx context.Context, userID, reservationID int64) (*models.PayReservationResponse, error) {
	start := time.Now()
	now := s.clock.Now()

	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if reservation == nil || reservation.UserID != userID {
		return nil, fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrNotFound)
	}
	if reservation.Status == models.ReservationStatusExpired {
		return nil, fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrExpired)
	}
	if reservation.Status != models.ReservationStatusPending {
		return nil, fmt.Errorf("reservation %d is %s: %w",
			reservationID, reservation.Status, apperrors.ErrInvalidState)
	}
	if reservation.IsDueAt(now) {
		// Expired before we even charged. Persist the transition and refuse.
		if err := s.expireLate(ctx, reservationID, now); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrExpired)
	}

	orderID := uuid.New().String()
	charge, err := s.gateway.Charge(reservation.TotalAmount, orderID,
		fmt.Sprintf("reservation %d", reservation.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to charge payment: %w", err)
	}

	var payment models.Payment
	var tickets []models.Ticket
	var expired bool

	txErr := s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.reservations.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrNotFound)
		}
		if current.Status == models.ReservationStatusExpired {
			return fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrExpired)
		}
		if current.Status != models.ReservationStatusPending {
			return fmt.Errorf("reservation %d is %s: %w",
				reservationID, current.Status, apperrors.ErrInvalidState)
		}

		// The charge may have taken long enough for the hold to pass its
		// deadline; judge expiry by the clock as of the re-check, not the
		// pre-charge read.
		now = s.clock.Now()
		if current.IsDueAt(now) {
			// Lost the expiry race after charging. Commit the expiry
			// transition; the charge is reversed below.
			expired = true
			reservation = current
			return expireDueReservation(ctx, s.events, s.reservations, current)
		}
		reservation = current

		if err := s.reservations.UpdateStatus(ctx, current.ID, models.ReservationStatusPaid); err != nil {
			return err
		}

		payment = models.Payment{
			ReservationID: current.ID,
			Status:        models.PaymentStatusCompleted,
			Amount:        current.TotalAmount,
			Provider:      s.gateway.Provider(),
			ExternalRef:   charge.PaymentID,
		}
		if err := s.payments.Create(ctx, &payment); err != nil {
			return err
		}

		tickets = make([]models.Ticket, 0, current.Quantity)
		for i := 0; i < current.Quantity; i++ {
			ticket := models.Ticket{
				EventID:       current.EventID,
				ReservationID: current.ID,
				OwnerID:       current.UserID,
				Status:        models.TicketStatusActive,
				QRCode:        qr.Mint(current.EventID, current.UserID),
			}
			if err := s.tickets.Create(ctx, &ticket); err != nil {
				return err
			}
			tickets = append(tickets, ticket)
		}
		return nil
	})
	if txErr != nil {
		s.reverseCharge(ctx, charge.PaymentID, "settlement aborted")
		return nil, txErr
	}

	if expired {
		s.reverseCharge(ctx, charge.PaymentID, "reservation expired")
		monitoring.ObserveExpired(1)
		publish(ctx, s.publisher, models.EventReservationExpired, models.ReservationExpiredEvent{
			ReservationID: reservation.ID,
			EventID:       reservation.EventID,
			Quantity:      reservation.Quantity,
			UserID:        reservation.UserID,
			Timestamp:     now,
		})
		return nil, fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrExpired)
	}

	monitoring.ObserveSettlement(len(tickets), time.Since(start))

	ticketIDs := make([]int64, len(tickets))
	ticketResponses := make([]models.TicketResponse, len(tickets))
	for i, ticket := range tickets {
		ticketIDs[i] = ticket.ID
		ticketResponses[i] = models.TicketResponse{
			ID:      ticket.ID,
			EventID: ticket.EventID,
			OwnerID: ticket.OwnerID,
			Status:  ticket.Status,
			QRCode:  ticket.QRCode,
		}
	}

	// The worker consumes this event and sends the purchase confirmation.
	publish(ctx, s.publisher, models.EventPaymentCompleted, models.PaymentCompletedEvent{
		ReservationID: reservation.ID,
		PaymentID:     payment.ID,
		EventID:       reservation.EventID,
		UserID:        reservation.UserID,
		TicketIDs:     ticketIDs,
		Timestamp:     now,
	})

	return &models.PayReservationResponse{
		ReservationID: reservation.ID,
		Status:        models.ReservationStatusPaid,
		Payment: models.PaymentResponse{
			ID:          payment.ID,
			Amount:      payment.Amount,
			Provider:    payment.Provider,
			ExternalRef: payment.ExternalRef,
		},
		Tickets: ticketResponses,
	}, nil
}

// expireLate persists the EXPIRED transition for a hold found past-due on
// the payment path, re-checking under the row lock first.
func (s *SettlementService) expireLate(ctx context.Context, reservationID int64, now time.Time) error {
	var reservation *models.Reservation
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.reservations.GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if current == nil || !current.IsDueAt(now) {
			return nil
		}
		reservation = current
		return expireDueReservation(ctx, s.events, s.reservations, current)
	})
	if err != nil {
		return err
	}

	if reservation != nil {
		monitoring.ObserveExpired(1)
		publish(ctx, s.publisher, models.EventReservationExpired, models.ReservationExpiredEvent{
			ReservationID: reservation.ID,
			EventID:       reservation.EventID,
			Quantity:      reservation.Quantity,
			UserID:        reservation.UserID,
			Timestamp:     now,
		})
	}
	return nil
}

func (s *SettlementService) reverseCharge(ctx context.Context, paymentID, reason string) {
	if err := s.gateway.CancelPayment(paymentID, reason); err != nil {
		logger.WithContext(ctx).Error("Failed to reverse charge",
			"error", err,
			"payment_id", paymentID,
			"reason", reason)
	}
}
