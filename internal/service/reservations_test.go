package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilet/internal/clock"
	apperrors "bilet/internal/errors"
	"bilet/internal/models"
)

func newReservationHarness(t *testing.T) (*ReservationService, *fakeStore, *fakePublisher, *clock.Fixed) {
	t.Helper()
	f := newFakeStore()
	pub := &fakePublisher{}
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewReservationService(f, f, reservationStore{f}, pub, clk)
	return svc, f, pub, clk
}

func TestCreateReservationDecrementsStock(t *testing.T) {
	svc, f, pub, clk := newReservationHarness(t)
	eventID := f.addEvent("Concert", clk.Now().Add(48*time.Hour), 100, decimal.NewFromInt(5000))
	userID := f.addUser("alice@example.com")

	resp, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
		EventID:  eventID,
		Quantity: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReservationStatusPending, resp.Status)
	assert.Equal(t, 4, resp.Quantity)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, clk.Now().Add(ReservationTTL), resp.ExpiresAt)
	assert.Equal(t, 96, resp.Event.TicketsAvailable)
	assert.Equal(t, 96, f.events[eventID].TicketsAvailable)
	assert.Equal(t, 1, pub.count(models.EventReservationCreated))
}

func TestCreateReservationQuantityBounds(t *testing.T) {
	svc, f, _, clk := newReservationHarness(t)
	eventID := f.addEvent("Concert", clk.Now().Add(48*time.Hour), 100, decimal.NewFromInt(5000))
	userID := f.addUser("alice@example.com")

	for _, qty := range []int{0, -1, MaxTicketsPerReservation + 1} {
		_, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
			EventID:  eventID,
			Quantity: qty,
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation, "quantity %d", qty)
	}

	// Stock untouched by rejected requests.
	assert.Equal(t, 100, f.events[eventID].TicketsAvailable)
}

func TestCreateReservationInsufficientStock(t *testing.T) {
	svc, f, _, clk := newReservationHarness(t)
	eventID := f.addEvent("Club night", clk.Now().Add(24*time.Hour), 3, decimal.NewFromInt(1000))
	userID := f.addUser("alice@example.com")

	_, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
		EventID:  eventID,
		Quantity: 5,
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Equal(t, 3, f.events[eventID].TicketsAvailable)
}

func TestCreateReservationUnknownEvent(t *testing.T) {
	svc, f, _, _ := newReservationHarness(t)
	userID := f.addUser("alice@example.com")

	_, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
		EventID:  9999,
		Quantity: 1,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// Concurrent holds must never oversell: with 10 tickets and twenty
// single-ticket requests, exactly ten succeed.
func TestCreateReservationNoOversell(t *testing.T) {
	svc, f, _, clk := newReservationHarness(t)
	eventID := f.addEvent("Final", clk.Now().Add(24*time.Hour), 10, decimal.NewFromInt(2500))
	userID := f.addUser("alice@example.com")

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
				EventID:  eventID,
				Quantity: 1,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
		}
	}

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 0, f.events[eventID].TicketsAvailable)
}

func TestCancelReservationReleasesStock(t *testing.T) {
	svc, f, pub, clk := newReservationHarness(t)
	eventID := f.addEvent("Concert", clk.Now().Add(48*time.Hour), 50, decimal.NewFromInt(3000))
	userID := f.addUser("alice@example.com")

	resp, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
		EventID:  eventID,
		Quantity: 3,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), userID, resp.ID))

	assert.Equal(t, 50, f.events[eventID].TicketsAvailable)
	assert.Equal(t, models.ReservationStatusCancelled, f.reservations[resp.ID].Status)
	assert.Equal(t, 1, pub.count(models.EventReservationCancelled))

	// A second cancel hits a terminal state.
	err = svc.Cancel(context.Background(), userID, resp.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, 50, f.events[eventID].TicketsAvailable)
}

func TestCancelReservationOwnershipHidden(t *testing.T) {
	svc, f, _, clk := newReservationHarness(t)
	eventID := f.addEvent("Concert", clk.Now().Add(48*time.Hour), 50, decimal.NewFromInt(3000))
	alice := f.addUser("alice@example.com")
	mallory := f.addUser("mallory@example.com")

	resp, err := svc.Create(context.Background(), alice, &models.CreateReservationRequest{
		EventID:  eventID,
		Quantity: 2,
	})
	require.NoError(t, err)

	// Someone else's reservation reads as missing, not forbidden.
	err = svc.Cancel(context.Background(), mallory, resp.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, models.ReservationStatusPending, f.reservations[resp.ID].Status)
}

// A cancel that arrives after the payment deadline persists EXPIRED instead
// of CANCELLED and reports the expiry to the caller.
func TestCancelPastDueExpiresInstead(t *testing.T) {
	svc, f, pub, clk := newReservationHarness(t)
	eventID := f.addEvent("Concert", clk.Now().Add(48*time.Hour), 50, decimal.NewFromInt(3000))
	userID := f.addUser("alice@example.com")

	resp, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
		EventID:  eventID,
		Quantity: 2,
	})
	require.NoError(t, err)

	clk.Advance(ReservationTTL + time.Second)

	err = svc.Cancel(context.Background(), userID, resp.ID)
	assert.ErrorIs(t, err, apperrors.ErrExpired)
	assert.Equal(t, models.ReservationStatusExpired, f.reservations[resp.ID].Status)
	assert.Equal(t, 50, f.events[eventID].TicketsAvailable)
	assert.Equal(t, 1, pub.count(models.EventReservationExpired))
	assert.Equal(t, 0, pub.count(models.EventReservationCancelled))
}

// A past-due PENDING reservation reads as EXPIRED before any writer has
// persisted the transition.
func TestGetReportsEffectiveStatus(t *testing.T) {
	svc, f, _, clk := newReservationHarness(t)
	eventID := f.addEvent("Concert", clk.Now().Add(48*time.Hour), 50, decimal.NewFromInt(3000))
	userID := f.addUser("alice@example.com")

	resp, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
		EventID:  eventID,
		Quantity: 1,
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), userID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPending, got.Status)

	clk.Advance(ReservationTTL + time.Minute)

	got, err = svc.Get(context.Background(), userID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusExpired, got.Status)
	// The read did not write anything.
	assert.Equal(t, models.ReservationStatusPending, f.reservations[resp.ID].Status)
}

func TestExpireDueSweep(t *testing.T) {
	svc, f, pub, clk := newReservationHarness(t)
	eventID := f.addEvent("Concert", clk.Now().Add(48*time.Hour), 50, decimal.NewFromInt(3000))
	userID := f.addUser("alice@example.com")

	first, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
		EventID:  eventID,
		Quantity: 3,
	})
	require.NoError(t, err)

	clk.Advance(10 * time.Minute)

	second, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
		EventID:  eventID,
		Quantity: 2,
	})
	require.NoError(t, err)

	// First reservation is now past due, the second still has time.
	clk.Advance(6 * time.Minute)

	expired, err := svc.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, models.ReservationStatusExpired, f.reservations[first.ID].Status)
	assert.Equal(t, models.ReservationStatusPending, f.reservations[second.ID].Status)
	assert.Equal(t, 48, f.events[eventID].TicketsAvailable)
	assert.Equal(t, 1, pub.count(models.EventReservationExpired))

	// Re-running the sweep is a no-op: stock is released exactly once.
	expired, err = svc.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
	assert.Equal(t, 48, f.events[eventID].TicketsAvailable)
	assert.Equal(t, 1, pub.count(models.EventReservationExpired))
}

// Reserve, expire, reserve again: stock round-trips exactly.
func TestStockConservation(t *testing.T) {
	svc, f, _, clk := newReservationHarness(t)
	eventID := f.addEvent("Concert", clk.Now().Add(48*time.Hour), 10, decimal.NewFromInt(1000))
	userID := f.addUser("alice@example.com")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), userID, &models.CreateReservationRequest{
			EventID:  eventID,
			Quantity: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, f.events[eventID].TicketsAvailable)

		clk.Advance(ReservationTTL + time.Second)

		expired, err := svc.ExpireDue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.Equal(t, 10, f.events[eventID].TicketsAvailable)
	}
}
