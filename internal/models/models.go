package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateEventRequest - request body for creating an event
type CreateEventRequest struct {
	Title        string          `json:"title" binding:"required"`
	Venue        string          `json:"venue" binding:"required"`
	StartsAt     time.Time       `json:"starts_at" binding:"required"`
	TicketsTotal int             `json:"tickets_total" binding:"required,gt=0"`
	Price        decimal.Decimal `json:"price" binding:"required"`
}

// CreateEventResponse - response body after creating an event
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// EventResponse - public view of an event including remaining stock
type EventResponse struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Venue            string          `json:"venue"`
	StartsAt         time.Time       `json:"starts_at"`
	TicketsTotal     int             `json:"tickets_total"`
	TicketsAvailable int             `json:"tickets_available"`
	Price            decimal.Decimal `json:"price"`
}

// CreateReservationRequest - request body for placing a hold
type CreateReservationRequest struct {
	EventID  int64 `json:"event_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required"`
}

// ReservationResponse - a reservation with its nested event data
type ReservationResponse struct {
	ID          int64           `json:"id"`
	EventID     int64           `json:"event_id"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	ExpiresAt   time.Time       `json:"expires_at"`
	CreatedAt   time.Time       `json:"created_at"`
	Event       *EventResponse  `json:"event,omitempty"`
}

// CancelReservationRequest - request body for cancelling a hold
type CancelReservationRequest struct {
	ReservationID int64 `json:"reservation_id" binding:"required"`
}

// PayReservationRequest - request body for settling a hold
type PayReservationRequest struct {
	ReservationID int64 `json:"reservation_id" binding:"required"`
}

// PayReservationResponse - settlement result: the payment plus the minted tickets
type PayReservationResponse struct {
	ReservationID int64            `json:"reservation_id"`
	Status        string           `json:"status"`
	Payment       PaymentResponse  `json:"payment"`
	Tickets       []TicketResponse `json:"tickets"`
}

// PaymentResponse - public view of a payment record
type PaymentResponse struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Provider    string          `json:"provider"`
	ExternalRef string          `json:"external_ref"`
}

// TicketResponse - public view of a ticket
type TicketResponse struct {
	ID      int64  `json:"id"`
	EventID int64  `json:"event_id"`
	OwnerID int64  `json:"owner_id"`
	Status  string `json:"status"`
	QRCode  string `json:"qr_code"`
}

// VerifyTicketRequest - request body for QR verification
type VerifyTicketRequest struct {
	QRCode string `json:"qr_code" binding:"required"`
}

// VerifyTicketResponse - result of QR verification
type VerifyTicketResponse struct {
	Valid    bool   `json:"valid"`
	TicketID *int64 `json:"ticket_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// InitiateTransferRequest - request body for offering a ticket to another user
type InitiateTransferRequest struct {
	TicketID      int64  `json:"ticket_id" binding:"required"`
	ReceiverEmail string `json:"receiver_email" binding:"required,email"`
}

// TransferResponse - public view of a ticket transfer
type TransferResponse struct {
	ID          int64      `json:"id"`
	TicketID    int64      `json:"ticket_id"`
	FromUserID  int64      `json:"from_user_id"`
	ToUserID    int64      `json:"to_user_id"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// RespondTransferRequest - request body for accepting or rejecting a transfer
type RespondTransferRequest struct {
	TicketID int64 `json:"ticket_id" binding:"required"`
}
