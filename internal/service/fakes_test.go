package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "bilet/internal/errors"
	"bilet/internal/external"
	"bilet/internal/models"
)

// fakeStore is an in-memory implementation of every store interface plus
// TxRunner. WithTx serializes callers with a mutex and snapshots the maps,
// restoring them when fn fails, which mirrors a rolled-back transaction.
type fakeStore struct {
	mu sync.Mutex

	events       map[int64]models.Event
	reservations map[int64]models.Reservation
	payments     map[int64]models.Payment
	tickets      map[int64]models.Ticket
	transfers    map[int64]models.TicketTransfer
	users        map[int64]models.User

	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       make(map[int64]models.Event),
		reservations: make(map[int64]models.Reservation),
		payments:     make(map[int64]models.Payment),
		tickets:      make(map[int64]models.Ticket),
		transfers:    make(map[int64]models.TicketTransfer),
		users:        make(map[int64]models.User),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

type fakeTxKey struct{}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := f.copyState()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.restoreState(snapshot)
		return err
	}
	return nil
}

type fakeState struct {
	events       map[int64]models.Event
	reservations map[int64]models.Reservation
	payments     map[int64]models.Payment
	tickets      map[int64]models.Ticket
	transfers    map[int64]models.TicketTransfer
	nextID       int64
}

func (f *fakeStore) copyState() fakeState {
	s := fakeState{
		events:       make(map[int64]models.Event, len(f.events)),
		reservations: make(map[int64]models.Reservation, len(f.reservations)),
		payments:     make(map[int64]models.Payment, len(f.payments)),
		tickets:      make(map[int64]models.Ticket, len(f.tickets)),
		transfers:    make(map[int64]models.TicketTransfer, len(f.transfers)),
		nextID:       f.nextID,
	}
	for k, v := range f.events {
		s.events[k] = v
	}
	for k, v := range f.reservations {
		s.reservations[k] = v
	}
	for k, v := range f.payments {
		s.payments[k] = v
	}
	for k, v := range f.tickets {
		s.tickets[k] = v
	}
	for k, v := range f.transfers {
		s.transfers[k] = v
	}
	return s
}

func (f *fakeStore) restoreState(s fakeState) {
	f.events = s.events
	f.reservations = s.reservations
	f.payments = s.payments
	f.tickets = s.tickets
	f.transfers = s.transfers
	f.nextID = s.nextID
}

// seed helpers

func (f *fakeStore) addEvent(title string, startsAt time.Time, total int, price decimal.Decimal) int64 {
	id := f.id()
	f.events[id] = models.Event{
		ID:               id,
		Title:            title,
		Venue:            "Arena",
		Provider:         "bilet",
		StartsAt:         startsAt,
		TicketsTotal:     total,
		TicketsAvailable: total,
		Price:            price,
	}
	return id
}

func (f *fakeStore) addUser(email string) int64 {
	id := f.id()
	f.users[id] = models.User{
		UserID:   id,
		Email:    email,
		IsActive: true,
	}
	return id
}

// EventStore

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeStore) GetForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeStore) ReserveStock(ctx context.Context, eventID int64, qty int) error {
	e, ok := f.events[eventID]
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	if e.TicketsAvailable < qty {
		return fmt.Errorf("event %d has %d tickets left: %w",
			eventID, e.TicketsAvailable, apperrors.ErrInsufficientStock)
	}
	e.TicketsAvailable -= qty
	f.events[eventID] = e
	return nil
}

func (f *fakeStore) ReleaseStock(ctx context.Context, eventID int64, qty int) error {
	e, ok := f.events[eventID]
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	e.TicketsAvailable += qty
	if e.TicketsAvailable > e.TicketsTotal {
		e.TicketsAvailable = e.TicketsTotal
	}
	f.events[eventID] = e
	return nil
}

// reservationStore adapts fakeStore to ReservationStore; separate types keep
// the method sets from colliding on names like Create and GetByID.
type reservationStore struct{ f *fakeStore }

func (s reservationStore) Create(ctx context.Context, r *models.Reservation) error {
	r.ID = s.f.id()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	s.f.reservations[r.ID] = *r
	return nil
}

func (s reservationStore) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	r, ok := s.f.reservations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s reservationStore) GetForUpdate(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.GetByID(ctx, id)
}

func (s reservationStore) GetByUserID(ctx context.Context, userID int64) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range s.f.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s reservationStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	r, ok := s.f.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %d: %w", id, apperrors.ErrNotFound)
	}
	r.Status = status
	s.f.reservations[id] = r
	return nil
}

func (s reservationStore) GetDuePending(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range s.f.reservations {
		if r.IsDueAt(now) {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type paymentStore struct{ f *fakeStore }

func (s paymentStore) Create(ctx context.Context, p *models.Payment) error {
	for _, existing := range s.f.payments {
		if existing.ReservationID == p.ReservationID {
			return fmt.Errorf("payment for reservation %d exists: %w",
				p.ReservationID, apperrors.ErrConflict)
		}
	}
	p.ID = s.f.id()
	p.CreatedAt = time.Now()
	s.f.payments[p.ID] = *p
	return nil
}

type ticketStore struct{ f *fakeStore }

func (s ticketStore) Create(ctx context.Context, t *models.Ticket) error {
	t.ID = s.f.id()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.f.tickets[t.ID] = *t
	return nil
}

func (s ticketStore) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	t, ok := s.f.tickets[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s ticketStore) GetForUpdate(ctx context.Context, id int64) (*models.Ticket, error) {
	return s.GetByID(ctx, id)
}

func (s ticketStore) GetByQR(ctx context.Context, qrCode string) (*models.Ticket, error) {
	for _, t := range s.f.tickets {
		if t.QRCode == qrCode {
			return &t, nil
		}
	}
	return nil, nil
}

func (s ticketStore) GetByOwnerID(ctx context.Context, ownerID int64) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range s.f.tickets {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s ticketStore) GetByReservationID(ctx context.Context, reservationID int64) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range s.f.tickets {
		if t.ReservationID == reservationID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s ticketStore) Reassign(ctx context.Context, id, newOwnerID int64, newQR string) error {
	t, ok := s.f.tickets[id]
	if !ok {
		return fmt.Errorf("ticket %d: %w", id, apperrors.ErrNotFound)
	}
	t.OwnerID = newOwnerID
	t.QRCode = newQR
	s.f.tickets[id] = t
	return nil
}

type transferStore struct{ f *fakeStore }

func (s transferStore) Create(ctx context.Context, t *models.TicketTransfer) error {
	for _, existing := range s.f.transfers {
		if existing.TicketID == t.TicketID && existing.Status == models.TransferStatusPending {
			return fmt.Errorf("pending transfer for ticket %d exists: %w",
				t.TicketID, apperrors.ErrConflict)
		}
	}
	t.ID = s.f.id()
	t.CreatedAt = time.Now()
	s.f.transfers[t.ID] = *t
	return nil
}

func (s transferStore) GetPendingByTicketID(ctx context.Context, ticketID int64) (*models.TicketTransfer, error) {
	for _, t := range s.f.transfers {
		if t.TicketID == ticketID && t.Status == models.TransferStatusPending {
			return &t, nil
		}
	}
	return nil, nil
}

func (s transferStore) GetPendingForReceiver(ctx context.Context, ticketID, toUserID int64) (*models.TicketTransfer, error) {
	for _, t := range s.f.transfers {
		if t.TicketID == ticketID && t.ToUserID == toUserID && t.Status == models.TransferStatusPending {
			return &t, nil
		}
	}
	return nil, nil
}

func (s transferStore) MarkResponded(ctx context.Context, id int64, status string, respondedAt *time.Time) error {
	t, ok := s.f.transfers[id]
	if !ok {
		return fmt.Errorf("transfer %d: %w", id, apperrors.ErrNotFound)
	}
	t.Status = status
	t.RespondedAt = respondedAt
	s.f.transfers[id] = t
	return nil
}

func (s transferStore) GetDuePending(ctx context.Context, now time.Time, limit int) ([]models.TicketTransfer, error) {
	var out []models.TicketTransfer
	for _, t := range s.f.transfers {
		if t.IsDueAt(now) {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type userStore struct{ f *fakeStore }

func (s userStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := s.f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

// fakePublisher records published subjects.
type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakePublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *fakePublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

// fakeGateway is a ChargeClient that succeeds unless told otherwise and
// records reversals.
type fakeGateway struct {
	mu        sync.Mutex
	charges   int
	cancelled []string
	failNext  bool
	onCharge  func()
}

func (g *fakeGateway) Charge(amount decimal.Decimal, orderID, description string) (*external.ChargeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext {
		g.failNext = false
		return nil, fmt.Errorf("gateway refused the charge")
	}
	if g.onCharge != nil {
		g.onCharge()
	}
	g.charges++
	return &external.ChargeResponse{
		Success:   true,
		PaymentID: fmt.Sprintf("pay-%d", g.charges),
		OrderID:   orderID,
		Status:    "CONFIRMED",
	}, nil
}

func (g *fakeGateway) CancelPayment(paymentID, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, paymentID)
	return nil
}

func (g *fakeGateway) Provider() string {
	return "fake-gateway"
}
