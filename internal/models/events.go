package models

import "time"

// NATS Event Types
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationExpired   = "reservation.expired"
	EventPaymentCompleted     = "payment.completed"
	EventTransferInitiated    = "transfer.initiated"
	EventTransferAccepted     = "transfer.accepted"
	EventTransferRejected     = "transfer.rejected"
	EventTransferExpired      = "transfer.expired"
)

// ReservationCreatedEvent represents a new hold on event stock
type ReservationCreatedEvent struct {
	ReservationID int64     `json:"reservation_id"`
	EventID       int64     `json:"event_id"`
	UserID        int64     `json:"user_id"`
	Quantity      int       `json:"quantity"`
	ExpiresAt     time.Time `json:"expires_at"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReservationCancelledEvent represents a user-initiated cancellation
type ReservationCancelledEvent struct {
	ReservationID int64     `json:"reservation_id"`
	EventID       int64     `json:"event_id"`
	Quantity      int       `json:"quantity"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReservationExpiredEvent represents a hold released by the sweeper or a
// lazy expiry check
type ReservationExpiredEvent struct {
	ReservationID int64     `json:"reservation_id"`
	EventID       int64     `json:"event_id"`
	Quantity      int       `json:"quantity"`
	UserID        int64     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentCompletedEvent represents a settled reservation; the worker sends
// the purchase confirmation when it consumes this event
type PaymentCompletedEvent struct {
	ReservationID int64     `json:"reservation_id"`
	PaymentID     int64     `json:"payment_id"`
	EventID       int64     `json:"event_id"`
	UserID        int64     `json:"user_id"`
	TicketIDs     []int64   `json:"ticket_ids"`
	Timestamp     time.Time `json:"timestamp"`
}

// TransferInitiatedEvent represents a new pending ticket transfer
type TransferInitiatedEvent struct {
	TransferID int64     `json:"transfer_id"`
	TicketID   int64     `json:"ticket_id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	Timestamp  time.Time `json:"timestamp"`
}

// TransferAcceptedEvent represents a completed ownership change
type TransferAcceptedEvent struct {
	TransferID int64     `json:"transfer_id"`
	TicketID   int64     `json:"ticket_id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// TransferRejectedEvent represents a declined transfer offer
type TransferRejectedEvent struct {
	TransferID int64     `json:"transfer_id"`
	TicketID   int64     `json:"ticket_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// TransferExpiredEvent represents a transfer offer that timed out
type TransferExpiredEvent struct {
	TransferID int64     `json:"transfer_id"`
	TicketID   int64     `json:"ticket_id"`
	Timestamp  time.Time `json:"timestamp"`
}
