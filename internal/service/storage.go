package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bilet/internal/external"
	"bilet/internal/models"
)

// The services talk to storage through narrow interfaces so the reservation,
// settlement and transfer logic can be exercised against in-memory fakes.
// The concrete implementations live in internal/repository.

// TxRunner runs fn inside a single transaction carried in the context.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventStore is the stock ledger. ReserveStock and ReleaseStock are the only
// operations allowed to change tickets_available, and both take the event
// row lock before reading it.
type EventStore interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Event, error)
	ReserveStock(ctx context.Context, eventID int64, qty int) error
	ReleaseStock(ctx context.Context, eventID int64, qty int) error
}

type ReservationStore interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Reservation, error)
	GetByUserID(ctx context.Context, userID int64) ([]models.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	GetDuePending(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
}

type TicketStore interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Ticket, error)
	GetByQR(ctx context.Context, qrCode string) (*models.Ticket, error)
	GetByOwnerID(ctx context.Context, ownerID int64) ([]models.Ticket, error)
	GetByReservationID(ctx context.Context, reservationID int64) ([]models.Ticket, error)
	Reassign(ctx context.Context, id, newOwnerID int64, newQR string) error
}

type TransferStore interface {
	Create(ctx context.Context, transfer *models.TicketTransfer) error
	GetPendingByTicketID(ctx context.Context, ticketID int64) (*models.TicketTransfer, error)
	GetPendingForReceiver(ctx context.Context, ticketID, toUserID int64) (*models.TicketTransfer, error)
	MarkResponded(ctx context.Context, id int64, status string, respondedAt *time.Time) error
	GetDuePending(ctx context.Context, now time.Time, limit int) ([]models.TicketTransfer, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Publisher delivers domain events. Failures are logged, never propagated.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// ChargeClient is the payment gateway surface the settlement engine needs.
type ChargeClient interface {
	Charge(amount decimal.Decimal, orderID, description string) (*external.ChargeResponse, error)
	CancelPayment(paymentID, reason string) error
	Provider() string
}
