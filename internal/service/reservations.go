package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bilet/internal/clock"
	apperrors "bilet/internal/errors"
	"bilet/internal/logger"
	"bilet/internal/models"
	"bilet/internal/monitoring"
)

// ReservationService owns the hold lifecycle: PENDING is created here, and
// CANCELLED and EXPIRED are only ever persisted here, always under the event
// row lock so stock release cannot race a concurrent settlement.
type ReservationService struct {
	tx           TxRunner
	events       EventStore
	reservations ReservationStore
	publisher    Publisher
	clock        clock.Clock
}

func NewReservationService(tx TxRunner, events EventStore, reservations ReservationStore, publisher Publisher, clk clock.Clock) *ReservationService {
	return &ReservationService{
		tx:           tx,
		events:       events,
		reservations: reservations,
		publisher:    publisher,
		clock:        clk,
	}
}

// Create places a hold: locks the event row, decrements stock and persists a
// PENDING reservation with a fixed payment deadline, all in one transaction.
func (s *ReservationService) Create(ctx context.Context, userID int64, req *models.CreateReservationRequest) (*models.ReservationResponse, error) {
	if req.Quantity < 1 || req.Quantity > MaxTicketsPerReservation {
		return nil, fmt.Errorf("quantity must be between 1 and %d: %w",
			MaxTicketsPerReservation, apperrors.ErrValidation)
	}

	now := s.clock.Now()
	var reservation models.Reservation
	var event *models.Event

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.events.GetForUpdate(ctx, req.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return fmt.Errorf("event %d: %w", req.EventID, apperrors.ErrNotFound)
		}

		if err := s.events.ReserveStock(ctx, event.ID, req.Quantity); err != nil {
			return err
		}

		reservation = models.Reservation{
			UserID:      userID,
			EventID:     event.ID,
			Quantity:    req.Quantity,
			TotalAmount: event.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
			Status:      models.ReservationStatusPending,
			ExpiresAt:   now.Add(ReservationTTL),
		}
		return s.reservations.Create(ctx, &reservation)
	})
	if err != nil {
		monitoring.ObserveReservation("create", "error")
		return nil, err
	}

	monitoring.ObserveReservation("create", "ok")
	publish(ctx, s.publisher, models.EventReservationCreated, models.ReservationCreatedEvent{
		ReservationID: reservation.ID,
		EventID:       reservation.EventID,
		UserID:        userID,
		Quantity:      reservation.Quantity,
		ExpiresAt:     reservation.ExpiresAt,
		Timestamp:     now,
	})

	// Stock snapshot in the response reflects the decrement just made.
	event.TicketsAvailable -= reservation.Quantity

	return reservationResponse(&reservation, event, now), nil
}

// Cancel releases a hold. Only the owner may cancel, and only while the
// reservation is still PENDING. A past-due reservation is expired instead
// and the caller is told so.
func (s *ReservationService) Cancel(ctx context.Context, userID, reservationID int64) error {
	now := s.clock.Now()
	var expired bool
	var reservation *models.Reservation

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		reservation, err = s.reservations.GetForUpdate(ctx, reservationID)
		if err != nil {
			return fmt.Errorf("failed to get reservation: %w", err)
		}
		if reservation == nil || reservation.UserID != userID {
			return fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrNotFound)
		}

		if reservation.IsDueAt(now) {
			// The hold timed out before the cancel arrived. Persist the
			// expiry transition instead and report it.
			expired = true
			return expireDueReservation(ctx, s.events, s.reservations, reservation)
		}

		if reservation.Status != models.ReservationStatusPending {
			return fmt.Errorf("reservation %d is %s: %w",
				reservationID, reservation.Status, apperrors.ErrInvalidState)
		}

		if err := s.reservations.UpdateStatus(ctx, reservation.ID, models.ReservationStatusCancelled); err != nil {
			return err
		}
		return s.events.ReleaseStock(ctx, reservation.EventID, reservation.Quantity)
	})
	if err != nil {
		monitoring.ObserveReservation("cancel", "error")
		return err
	}

	if expired {
		monitoring.ObserveExpired(1)
		s.publishExpired(ctx, reservation, now)
		return fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrExpired)
	}

	monitoring.ObserveReservation("cancel", "ok")
	publish(ctx, s.publisher, models.EventReservationCancelled, models.ReservationCancelledEvent{
		ReservationID: reservation.ID,
		EventID:       reservation.EventID,
		Quantity:      reservation.Quantity,
		Reason:        "user cancellation",
		Timestamp:     now,
	})
	return nil
}

// Get returns a single reservation with nested event data. A PENDING
// reservation past its deadline reads as EXPIRED even before a writer has
// persisted the transition.
func (s *ReservationService) Get(ctx context.Context, userID, reservationID int64) (*models.ReservationResponse, error) {
	reservation, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if reservation == nil || reservation.UserID != userID {
		return nil, fmt.Errorf("reservation %d: %w", reservationID, apperrors.ErrNotFound)
	}

	event, err := s.events.GetByID(ctx, reservation.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return reservationResponse(reservation, event, s.clock.Now()), nil
}

// List returns the caller's reservations, newest first.
func (s *ReservationService) List(ctx context.Context, userID int64) ([]models.ReservationResponse, error) {
	reservations, err := s.reservations.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	now := s.clock.Now()
	result := make([]models.ReservationResponse, len(reservations))
	for i := range reservations {
		result[i] = *reservationResponse(&reservations[i], nil, now)
	}
	return result, nil
}

// ExpireDue is the sweep: it finds PENDING reservations past their deadline
// and, one transaction per reservation, re-checks the row under its lock,
// releases stock and persists EXPIRED. Re-running over already-expired rows
// is a no-op because only PENDING rows are selected, and the in-transaction
// re-check drops rows a concurrent settlement or cancel got to first.
func (s *ReservationService) ExpireDue(ctx context.Context) (int, error) {
	now := s.clock.Now()

	due, err := s.reservations.GetDuePending(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get due reservations: %w", err)
	}

	expired := 0
	for i := range due {
		reservation := &due[i]
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			current, err := s.reservations.GetForUpdate(ctx, reservation.ID)
			if err != nil {
				return err
			}
			if current == nil || !current.IsDueAt(now) {
				// Lost the race to a payment, cancel or another sweep.
				return nil
			}
			*reservation = *current
			return expireDueReservation(ctx, s.events, s.reservations, reservation)
		})
		if err != nil {
			logger.WithContext(ctx).Error("Failed to expire reservation",
				"error", err,
				"reservation_id", reservation.ID)
			continue
		}
		if reservation.Status == models.ReservationStatusExpired {
			expired++
			s.publishExpired(ctx, reservation, now)
		}
	}

	if expired > 0 {
		monitoring.ObserveExpired(expired)
	}
	return expired, nil
}

func (s *ReservationService) publishExpired(ctx context.Context, reservation *models.Reservation, now time.Time) {
	publish(ctx, s.publisher, models.EventReservationExpired, models.ReservationExpiredEvent{
		ReservationID: reservation.ID,
		EventID:       reservation.EventID,
		Quantity:      reservation.Quantity,
		UserID:        reservation.UserID,
		Timestamp:     now,
	})
}

// expireDueReservation persists the EXPIRED transition and returns the held
// stock. The caller must hold the reservation row lock inside an open
// transaction and have verified the reservation is PENDING and past its
// deadline. Both the sweeper and the lazy checks on cancel and pay funnel
// through here.
func expireDueReservation(ctx context.Context, events EventStore, reservations ReservationStore, reservation *models.Reservation) error {
	if err := events.ReleaseStock(ctx, reservation.EventID, reservation.Quantity); err != nil {
		return err
	}
	if err := reservations.UpdateStatus(ctx, reservation.ID, models.ReservationStatusExpired); err != nil {
		return err
	}
	reservation.Status = models.ReservationStatusExpired
	return nil
}

func reservationResponse(reservation *models.Reservation, event *models.Event, now time.Time) *models.ReservationResponse {
	resp := &models.ReservationResponse{
		ID:          reservation.ID,
		EventID:     reservation.EventID,
		Quantity:    reservation.Quantity,
		TotalAmount: reservation.TotalAmount,
		Status:      reservation.EffectiveStatus(now),
		ExpiresAt:   reservation.ExpiresAt,
		CreatedAt:   reservation.CreatedAt,
	}
	if event != nil {
		resp.Event = &models.EventResponse{
			ID:               event.ID,
			Title:            event.Title,
			Venue:            event.Venue,
			StartsAt:         event.StartsAt,
			TicketsTotal:     event.TicketsTotal,
			TicketsAvailable: event.TicketsAvailable,
			Price:            event.Price,
		}
	}
	return resp
}
