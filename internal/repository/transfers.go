package repository

import (
	"context"
	"database/sql"
	"time"

	"bilet/internal/database"
	"bilet/internal/models"
)

type TransferRepository struct {
	db *database.DB
}

func NewTransferRepository(db *database.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, transfer *models.TicketTransfer) error {
	query := `
		INSERT INTO ticket_transfers (ticket_id, from_user_id, to_user_id, status, expires_at, old_qr)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		transfer.TicketID,
		transfer.FromUserID,
		transfer.ToUserID,
		transfer.Status,
		transfer.ExpiresAt,
		transfer.OldQR,
	).Scan(&transfer.ID, &transfer.CreatedAt)
}

// GetPendingByTicketID returns the pending transfer for a ticket, if any.
// The partial unique index guarantees there is at most one.
func (r *TransferRepository) GetPendingByTicketID(ctx context.Context, ticketID int64) (*models.TicketTransfer, error) {
	return r.get(ctx, `WHERE ticket_id = $1 AND status = 'pending'`, false, ticketID)
}

// GetPendingForReceiver locates the pending transfer of a ticket addressed to
// a specific receiver, under an exclusive row lock. Must be called inside a
// transaction.
func (r *TransferRepository) GetPendingForReceiver(ctx context.Context, ticketID, toUserID int64) (*models.TicketTransfer, error) {
	return r.get(ctx, `WHERE ticket_id = $1 AND to_user_id = $2 AND status = 'pending'`, true, ticketID, toUserID)
}

func (r *TransferRepository) get(ctx context.Context, where string, forUpdate bool, args ...interface{}) (*models.TicketTransfer, error) {
	transfer := &models.TicketTransfer{}
	query := `
		SELECT id, ticket_id, from_user_id, to_user_id, status, expires_at, responded_at, old_qr, created_at
		FROM ticket_transfers ` + where
	if forUpdate {
		query += " FOR UPDATE"
	}

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, args...).Scan(
		&transfer.ID,
		&transfer.TicketID,
		&transfer.FromUserID,
		&transfer.ToUserID,
		&transfer.Status,
		&transfer.ExpiresAt,
		&transfer.RespondedAt,
		&transfer.OldQR,
		&transfer.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return transfer, err
}

// MarkResponded finalizes a transfer. respondedAt is nil for expiry, set for
// accept and reject.
func (r *TransferRepository) MarkResponded(ctx context.Context, id int64, status string, respondedAt *time.Time) error {
	query := `UPDATE ticket_transfers SET status = $1, responded_at = $2 WHERE id = $3`
	_, err := r.db.Querier(ctx).ExecContext(ctx, query, status, respondedAt, id)
	return err
}

// GetDuePending returns pending transfers whose deadline has passed.
func (r *TransferRepository) GetDuePending(ctx context.Context, now time.Time, limit int) ([]models.TicketTransfer, error) {
	query := `
		SELECT id, ticket_id, from_user_id, to_user_id, status, expires_at, responded_at, old_qr, created_at
		FROM ticket_transfers
		WHERE status = 'pending' AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2`

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []models.TicketTransfer
	for rows.Next() {
		var transfer models.TicketTransfer
		err := rows.Scan(
			&transfer.ID,
			&transfer.TicketID,
			&transfer.FromUserID,
			&transfer.ToUserID,
			&transfer.Status,
			&transfer.ExpiresAt,
			&transfer.RespondedAt,
			&transfer.OldQR,
			&transfer.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}

	return transfers, rows.Err()
}
