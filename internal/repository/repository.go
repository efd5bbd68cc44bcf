package repository

import (
	"bilet/internal/database"
)

type Repositories struct {
	Events       *EventRepository
	Reservations *ReservationRepository
	Payments     *PaymentRepository
	Tickets      *TicketRepository
	Transfers    *TransferRepository
	Users        *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events:       NewEventRepository(db),
		Reservations: NewReservationRepository(db),
		Payments:     NewPaymentRepository(db),
		Tickets:      NewTicketRepository(db),
		Transfers:    NewTransferRepository(db),
		Users:        NewUserRepository(db),
	}
}
