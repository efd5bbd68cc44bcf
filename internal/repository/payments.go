package repository

import (
	"context"
	"database/sql"

	"bilet/internal/database"
	"bilet/internal/models"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (reservation_id, status, amount, provider, external_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		payment.ReservationID,
		payment.Status,
		payment.Amount,
		payment.Provider,
		payment.ExternalRef,
	).Scan(&payment.ID, &payment.CreatedAt)
}

func (r *PaymentRepository) GetByReservationID(ctx context.Context, reservationID int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, reservation_id, status, amount, provider, external_ref, created_at
		FROM payments
		WHERE reservation_id = $1`

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, reservationID).Scan(
		&payment.ID,
		&payment.ReservationID,
		&payment.Status,
		&payment.Amount,
		&payment.Provider,
		&payment.ExternalRef,
		&payment.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return payment, err
}
