package jobs

import (
	"context"
	"log/slog"
	"time"

	"bilet/internal/service"
)

// ExpirationJob periodically sweeps due pending reservations and due pending
// transfer offers. Sweeps run inline on the ticker goroutine so two sweeps
// never overlap; each row is still expired in its own transaction, so a slow
// sweep delays the next tick rather than stacking work.
type ExpirationJob struct {
	services *service.Services
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
}

func NewExpirationJob(services *service.Services, interval time.Duration) *ExpirationJob {
	return &ExpirationJob{
		services: services,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the background sweep loop. The first sweep runs immediately.
func (j *ExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting expiration job", "interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	go func() {
		j.sweep(ctx)

		for {
			select {
			case <-j.ticker.C:
				j.sweep(ctx)
			case <-j.done:
				slog.Info("Expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweep loop.
func (j *ExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *ExpirationJob) sweep(ctx context.Context) {
	start := time.Now()

	reservations, err := j.services.Reservations.ExpireDue(ctx)
	if err != nil {
		slog.Error("Reservation expiration sweep failed", "error", err)
	}

	transfers, err := j.services.Transfers.ExpireDue(ctx)
	if err != nil {
		slog.Error("Transfer expiration sweep failed", "error", err)
	}

	if reservations > 0 || transfers > 0 {
		slog.Info("Expiration sweep completed",
			"reservations_expired", reservations,
			"transfers_expired", transfers,
			"elapsed", time.Since(start).String())
	}
}
