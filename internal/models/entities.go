package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation statuses. PENDING is the only state that allows a transition;
// PAID, EXPIRED and CANCELLED are terminal.
const (
	ReservationStatusPending   = "PENDING"
	ReservationStatusPaid      = "PAID"
	ReservationStatusExpired   = "EXPIRED"
	ReservationStatusCancelled = "CANCELLED"
)

// Ticket statuses.
const (
	TicketStatusActive      = "ACTIVE"
	TicketStatusUsed        = "USED"
	TicketStatusCancelled   = "CANCELLED"
	TicketStatusTransferred = "TRANSFERRED"
)

// Transfer statuses.
const (
	TransferStatusPending  = "pending"
	TransferStatusAccepted = "accepted"
	TransferStatusRejected = "rejected"
	TransferStatusExpired  = "expired"
)

// Payment statuses.
const (
	PaymentStatusCompleted = "COMPLETED"
)

// User represents a user in the system
type User struct {
	UserID        int64      `json:"user_id" db:"user_id"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	PasswordPlain *string    `json:"-" db:"password_plain"`
	FirstName     string     `json:"first_name" db:"first_name"`
	Surname       string     `json:"surname" db:"surname"`
	Birthday      *time.Time `json:"birthday" db:"birthday"`
	RegisteredAt  time.Time  `json:"registered_at" db:"registered_at"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	LastLoggedIn  time.Time  `json:"last_logged_in" db:"last_logged_in"`
}

// Event represents an event with its stock counters. TicketsAvailable is
// mutated only by the stock ledger queries in the event repository, always
// under a FOR UPDATE row lock.
type Event struct {
	ID               int64           `json:"id" db:"id"`
	Title            string          `json:"title" db:"title"`
	Description      *string         `json:"description" db:"description"`
	Venue            string          `json:"venue" db:"venue"`
	Provider         string          `json:"provider" db:"provider"`
	StartsAt         time.Time       `json:"starts_at" db:"starts_at"`
	TicketsTotal     int             `json:"tickets_total" db:"tickets_total"`
	TicketsAvailable int             `json:"tickets_available" db:"tickets_available"`
	Price            decimal.Decimal `json:"price" db:"price"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// HasStartedAt reports whether the event has already begun at the given
// instant. Tickets of started events cannot be transferred.
func (e *Event) HasStartedAt(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// Reservation is a temporary hold on event stock. Quantity and ExpiresAt are
// fixed at creation and never change.
type Reservation struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"user_id" db:"user_id"`
	EventID     int64           `json:"event_id" db:"event_id"`
	Quantity    int             `json:"quantity" db:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status      string          `json:"status" db:"status"`
	ExpiresAt   time.Time       `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsDueAt reports whether a PENDING reservation has passed its deadline.
func (r *Reservation) IsDueAt(now time.Time) bool {
	return r.Status == ReservationStatusPending && r.ExpiresAt.Before(now)
}

// EffectiveStatus is the status a read path should report: a PENDING
// reservation past its deadline reads as EXPIRED even before any writer
// has persisted the transition.
func (r *Reservation) EffectiveStatus(now time.Time) string {
	if r.IsDueAt(now) {
		return ReservationStatusExpired
	}
	return r.Status
}

// Payment records a settled reservation. Exactly one per PAID reservation.
type Payment struct {
	ID            int64           `json:"id" db:"id"`
	ReservationID int64           `json:"reservation_id" db:"reservation_id"`
	Status        string          `json:"status" db:"status"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Provider      string          `json:"provider" db:"provider"`
	ExternalRef   string          `json:"external_ref" db:"external_ref"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Ticket is an individually verifiable admission right, minted only by the
// settlement engine. OwnerID changes only through the transfer protocol.
type Ticket struct {
	ID            int64      `json:"id" db:"id"`
	EventID       int64      `json:"event_id" db:"event_id"`
	ReservationID int64      `json:"reservation_id" db:"reservation_id"`
	OwnerID       int64      `json:"owner_id" db:"owner_id"`
	Status        string     `json:"status" db:"status"`
	QRCode        string     `json:"qr_code" db:"qr_code"`
	UsedAt        *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// TicketTransfer is a time-boxed offer to move a single ticket to another
// user. At most one pending transfer may exist per ticket.
type TicketTransfer struct {
	ID          int64      `json:"id" db:"id"`
	TicketID    int64      `json:"ticket_id" db:"ticket_id"`
	FromUserID  int64      `json:"from_user_id" db:"from_user_id"`
	ToUserID    int64      `json:"to_user_id" db:"to_user_id"`
	Status      string     `json:"status" db:"status"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty" db:"responded_at"`
	OldQR       string     `json:"-" db:"old_qr"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// IsDueAt reports whether a pending transfer has passed its deadline.
func (t *TicketTransfer) IsDueAt(now time.Time) bool {
	return t.Status == TransferStatusPending && t.ExpiresAt.Before(now)
}
