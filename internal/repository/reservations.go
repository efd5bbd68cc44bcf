package repository

import (
	"context"
	"database/sql"
	"time"

	"bilet/internal/database"
	"bilet/internal/models"
)

type ReservationRepository struct {
	db *database.DB
}

func NewReservationRepository(db *database.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	query := `
		INSERT INTO reservations (user_id, event_id, quantity, total_amount, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		reservation.UserID,
		reservation.EventID,
		reservation.Quantity,
		reservation.TotalAmount,
		reservation.Status,
		reservation.ExpiresAt,
	).Scan(&reservation.ID, &reservation.CreatedAt, &reservation.UpdatedAt)
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate loads a reservation under an exclusive row lock. Must be
// called inside a transaction.
func (r *ReservationRepository) GetForUpdate(ctx context.Context, id int64) (*models.Reservation, error) {
	return r.get(ctx, id, true)
}

func (r *ReservationRepository) get(ctx context.Context, id int64, forUpdate bool) (*models.Reservation, error) {
	reservation := &models.Reservation{}
	query := `
		SELECT id, user_id, event_id, quantity, total_amount, status, expires_at, created_at, updated_at
		FROM reservations
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, id).Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.EventID,
		&reservation.Quantity,
		&reservation.TotalAmount,
		&reservation.Status,
		&reservation.ExpiresAt,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return reservation, err
}

func (r *ReservationRepository) GetByUserID(ctx context.Context, userID int64) ([]models.Reservation, error) {
	query := `
		SELECT id, user_id, event_id, quantity, total_amount, status, expires_at, created_at, updated_at
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var reservation models.Reservation
		err := rows.Scan(
			&reservation.ID,
			&reservation.UserID,
			&reservation.EventID,
			&reservation.Quantity,
			&reservation.TotalAmount,
			&reservation.Status,
			&reservation.ExpiresAt,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	return reservations, rows.Err()
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Querier(ctx).ExecContext(ctx, query, status, id)
	return err
}

// GetDuePending returns PENDING reservations whose deadline has passed. The
// sweeper re-checks each row under a lock before expiring it, so this read
// needs no locking itself.
func (r *ReservationRepository) GetDuePending(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	query := `
		SELECT id, user_id, event_id, quantity, total_amount, status, expires_at, created_at, updated_at
		FROM reservations
		WHERE status = 'PENDING' AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2`

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var reservation models.Reservation
		err := rows.Scan(
			&reservation.ID,
			&reservation.UserID,
			&reservation.EventID,
			&reservation.Quantity,
			&reservation.TotalAmount,
			&reservation.Status,
			&reservation.ExpiresAt,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}

	return reservations, rows.Err()
}
