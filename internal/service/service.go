package service

import (
	"context"
	"time"

	"bilet/internal/clock"
	"bilet/internal/database"
	"bilet/internal/external"
	"bilet/internal/logger"
	"bilet/internal/repository"
)

const (
	// MaxTicketsPerReservation bounds a single hold.
	MaxTicketsPerReservation = 10

	// ReservationTTL is the payment window for a hold. Fixed at creation,
	// never extended.
	ReservationTTL = 15 * time.Minute

	// TransferTTL is the response window for a ticket transfer offer.
	TransferTTL = time.Hour

	sweepBatchSize = 200
)

type Services struct {
	Events       *EventService
	Reservations *ReservationService
	Settlement   *SettlementService
	Tickets      *TicketService
	Transfers    *TransferService
}

func NewServices(db *database.DB, repos *repository.Repositories, publisher Publisher, paymentClient *external.PaymentClient, clk clock.Clock) *Services {
	return &Services{
		Events:       NewEventService(repos.Events),
		Reservations: NewReservationService(db, repos.Events, repos.Reservations, publisher, clk),
		Settlement:   NewSettlementService(db, repos.Events, repos.Reservations, repos.Payments, repos.Tickets, paymentClient, publisher, clk),
		Tickets:      NewTicketService(repos.Tickets),
		Transfers:    NewTransferService(db, repos.Events, repos.Tickets, repos.Transfers, repos.Users, publisher, clk),
	}
}

// publish sends a domain event best-effort. A failed publish is logged and
// never fails the operation that produced it.
func publish(ctx context.Context, pub Publisher, subject string, data interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}
