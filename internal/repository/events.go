package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bilet/internal/database"
	apperrors "bilet/internal/errors"
	"bilet/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, venue, provider, starts_at, tickets_total, tickets_available, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.Venue,
		event.Provider,
		event.StartsAt,
		event.TicketsTotal,
		event.TicketsAvailable,
		event.Price,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate loads an event under an exclusive row lock. Must be called
// inside a transaction.
func (r *EventRepository) GetForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	return r.get(ctx, id, true)
}

func (r *EventRepository) get(ctx context.Context, id int64, forUpdate bool) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, title, description, venue, provider, starts_at, tickets_total, tickets_available, price, created_at, updated_at
		FROM events
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Venue,
		&event.Provider,
		&event.StartsAt,
		&event.TicketsTotal,
		&event.TicketsAvailable,
		&event.Price,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *EventRepository) List(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	var events []models.Event
	var args []interface{}

	query := `
		SELECT id, title, description, venue, provider, starts_at, tickets_total, tickets_available, price, created_at, updated_at
		FROM events
		ORDER BY starts_at ASC, id ASC`

	if page > 0 && pageSize > 0 {
		offset := (page - 1) * pageSize
		query += " LIMIT $1 OFFSET $2"
		args = append(args, pageSize, offset)
	}

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.Venue,
			&event.Provider,
			&event.StartsAt,
			&event.TicketsTotal,
			&event.TicketsAvailable,
			&event.Price,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// ReserveStock decrements tickets_available by qty. The row is locked with
// FOR UPDATE before the availability read, so concurrent reservations for the
// same event serialize here. Must be called inside a transaction.
func (r *EventRepository) ReserveStock(ctx context.Context, eventID int64, qty int) error {
	q := r.db.Querier(ctx)

	var available int
	err := q.QueryRowContext(ctx,
		`SELECT tickets_available FROM events WHERE id = $1 FOR UPDATE`, eventID,
	).Scan(&available)
	if err == sql.ErrNoRows {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	if err != nil {
		return err
	}

	if available < qty {
		return fmt.Errorf("event %d has %d tickets left, %d requested: %w",
			eventID, available, qty, apperrors.ErrInsufficientStock)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE events SET tickets_available = tickets_available - $1, updated_at = NOW() WHERE id = $2`,
		qty, eventID)
	return err
}

// ReleaseStock returns qty units to the pool, clamped at tickets_total so a
// double release can never overshoot. Must be called inside a transaction.
func (r *EventRepository) ReleaseStock(ctx context.Context, eventID int64, qty int) error {
	q := r.db.Querier(ctx)

	var available, total int
	err := q.QueryRowContext(ctx,
		`SELECT tickets_available, tickets_total FROM events WHERE id = $1 FOR UPDATE`, eventID,
	).Scan(&available, &total)
	if err == sql.ErrNoRows {
		return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx,
		`UPDATE events SET tickets_available = LEAST(tickets_total, tickets_available + $1), updated_at = NOW() WHERE id = $2`,
		qty, eventID)
	return err
}
