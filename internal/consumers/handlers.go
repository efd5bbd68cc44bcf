package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/stan.go"

	"bilet/internal/external"
	"bilet/internal/models"
	"bilet/internal/repository"
)

type Handlers struct {
	repos    *repository.Repositories
	notifier *external.NotifierClient
}

func NewHandlers(repos *repository.Repositories, notifier *external.NotifierClient) *Handlers {
	return &Handlers{
		repos:    repos,
		notifier: notifier,
	}
}

func (h *Handlers) HandleReservationCreated(m *stan.Msg) {
	var event models.ReservationCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation created event", "error", err)
		return
	}

	slog.Info("Reservation created",
		"reservation_id", event.ReservationID,
		"event_id", event.EventID,
		"quantity", event.Quantity,
		"expires_at", event.ExpiresAt)

	m.Ack()
}

func (h *Handlers) HandleReservationCancelled(m *stan.Msg) {
	var event models.ReservationCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation cancelled event", "error", err)
		return
	}

	slog.Info("Reservation cancelled",
		"reservation_id", event.ReservationID,
		"event_id", event.EventID,
		"quantity", event.Quantity,
		"reason", event.Reason)

	m.Ack()
}

func (h *Handlers) HandleReservationExpired(m *stan.Msg) {
	var event models.ReservationExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation expired event", "error", err)
		return
	}

	slog.Info("Reservation expired",
		"reservation_id", event.ReservationID,
		"event_id", event.EventID,
		"quantity", event.Quantity)

	m.Ack()
}

// HandlePaymentCompleted sends the purchase confirmation for a settled
// reservation. Notification failures are logged, never retried: the
// settlement itself already committed.
func (h *Handlers) HandlePaymentCompleted(m *stan.Msg) {
	var event models.PaymentCompletedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment completed event", "error", err)
		return
	}

	slog.Info("Processing payment completed event",
		"reservation_id", event.ReservationID,
		"payment_id", event.PaymentID,
		"tickets", len(event.TicketIDs))

	ctx := context.Background()

	user, err := h.repos.Users.GetByID(ctx, event.UserID)
	if err != nil || user == nil {
		slog.Error("Failed to load user for confirmation", "user_id", event.UserID, "error", err)
		m.Ack()
		return
	}

	evt, err := h.repos.Events.GetByID(ctx, event.EventID)
	if err != nil || evt == nil {
		slog.Error("Failed to load event for confirmation", "event_id", event.EventID, "error", err)
		m.Ack()
		return
	}

	payment, err := h.repos.Payments.GetByReservationID(ctx, event.ReservationID)
	if err != nil || payment == nil {
		slog.Error("Failed to load payment for confirmation", "reservation_id", event.ReservationID, "error", err)
		m.Ack()
		return
	}

	tickets, err := h.repos.Tickets.GetByReservationID(ctx, event.ReservationID)
	if err != nil {
		slog.Error("Failed to load tickets for confirmation", "reservation_id", event.ReservationID, "error", err)
		m.Ack()
		return
	}

	ticketViews := make([]models.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		ticketViews = append(ticketViews, models.TicketResponse{
			ID:      t.ID,
			EventID: t.EventID,
			OwnerID: t.OwnerID,
			Status:  t.Status,
			QRCode:  t.QRCode,
		})
	}

	confirmation := &external.PurchaseConfirmation{
		UserEmail:     user.Email,
		UserName:      user.FirstName,
		EventTitle:    evt.Title,
		EventVenue:    evt.Venue,
		EventStartsAt: evt.StartsAt,
		ReservationID: event.ReservationID,
		Amount:        payment.Amount.String(),
		Tickets:       ticketViews,
	}

	if err := h.notifier.SendPurchaseConfirmation(confirmation); err != nil {
		slog.Error("Failed to send purchase confirmation",
			"reservation_id", event.ReservationID,
			"user_id", event.UserID,
			"error", err)
	}

	m.Ack()
}

func (h *Handlers) HandleTransferInitiated(m *stan.Msg) {
	var event models.TransferInitiatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal transfer initiated event", "error", err)
		return
	}

	slog.Info("Transfer initiated",
		"transfer_id", event.TransferID,
		"ticket_id", event.TicketID,
		"from_user_id", event.FromUserID,
		"to_user_id", event.ToUserID,
		"expires_at", event.ExpiresAt)

	m.Ack()
}

func (h *Handlers) HandleTransferAccepted(m *stan.Msg) {
	var event models.TransferAcceptedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal transfer accepted event", "error", err)
		return
	}

	slog.Info("Transfer accepted",
		"transfer_id", event.TransferID,
		"ticket_id", event.TicketID,
		"to_user_id", event.ToUserID)

	m.Ack()
}

func (h *Handlers) HandleTransferRejected(m *stan.Msg) {
	var event models.TransferRejectedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal transfer rejected event", "error", err)
		return
	}

	slog.Info("Transfer rejected", "transfer_id", event.TransferID, "ticket_id", event.TicketID)

	m.Ack()
}

func (h *Handlers) HandleTransferExpired(m *stan.Msg) {
	var event models.TransferExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal transfer expired event", "error", err)
		return
	}

	slog.Info("Transfer expired", "transfer_id", event.TransferID, "ticket_id", event.TicketID)

	m.Ack()
}
