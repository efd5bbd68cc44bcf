package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationIsDueAt(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pending := Reservation{Status: ReservationStatusPending, ExpiresAt: deadline}
	assert.False(t, pending.IsDueAt(deadline.Add(-time.Second)))
	assert.False(t, pending.IsDueAt(deadline), "deadline itself is still on time")
	assert.True(t, pending.IsDueAt(deadline.Add(time.Second)))

	// Terminal states are never due regardless of the deadline.
	for _, status := range []string{ReservationStatusPaid, ReservationStatusExpired, ReservationStatusCancelled} {
		r := Reservation{Status: status, ExpiresAt: deadline}
		assert.False(t, r.IsDueAt(deadline.Add(time.Hour)), status)
	}
}

func TestReservationEffectiveStatus(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pending := Reservation{Status: ReservationStatusPending, ExpiresAt: deadline}
	assert.Equal(t, ReservationStatusPending, pending.EffectiveStatus(deadline.Add(-time.Minute)))
	assert.Equal(t, ReservationStatusExpired, pending.EffectiveStatus(deadline.Add(time.Minute)))

	paid := Reservation{Status: ReservationStatusPaid, ExpiresAt: deadline}
	assert.Equal(t, ReservationStatusPaid, paid.EffectiveStatus(deadline.Add(time.Hour)))
}

func TestTransferIsDueAt(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pending := TicketTransfer{Status: TransferStatusPending, ExpiresAt: deadline}
	assert.False(t, pending.IsDueAt(deadline))
	assert.True(t, pending.IsDueAt(deadline.Add(time.Nanosecond)))

	accepted := TicketTransfer{Status: TransferStatusAccepted, ExpiresAt: deadline}
	assert.False(t, accepted.IsDueAt(deadline.Add(time.Hour)))
}

func TestEventHasStartedAt(t *testing.T) {
	startsAt := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	event := Event{StartsAt: startsAt}

	assert.False(t, event.HasStartedAt(startsAt.Add(-time.Minute)))
	assert.True(t, event.HasStartedAt(startsAt), "start instant counts as started")
	assert.True(t, event.HasStartedAt(startsAt.Add(time.Minute)))
}
