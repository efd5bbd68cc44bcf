package repository

import (
	"context"
	"database/sql"

	"bilet/internal/database"
	"bilet/internal/models"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (event_id, reservation_id, owner_id, status, qr_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		ticket.EventID,
		ticket.ReservationID,
		ticket.OwnerID,
		ticket.Status,
		ticket.QRCode,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	return r.get(ctx, `WHERE id = $1`, false, id)
}

// GetForUpdate loads a ticket under an exclusive row lock. Must be called
// inside a transaction.
func (r *TicketRepository) GetForUpdate(ctx context.Context, id int64) (*models.Ticket, error) {
	return r.get(ctx, `WHERE id = $1`, true, id)
}

// GetByQR finds the ticket whose current token matches. Rotated tokens never
// match again.
func (r *TicketRepository) GetByQR(ctx context.Context, qrCode string) (*models.Ticket, error) {
	return r.get(ctx, `WHERE qr_code = $1`, false, qrCode)
}

func (r *TicketRepository) get(ctx context.Context, where string, forUpdate bool, args ...interface{}) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	query := `
		SELECT id, event_id, reservation_id, owner_id, status, qr_code, used_at, created_at, updated_at
		FROM tickets ` + where
	if forUpdate {
		query += " FOR UPDATE"
	}

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.ReservationID,
		&ticket.OwnerID,
		&ticket.Status,
		&ticket.QRCode,
		&ticket.UsedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return ticket, err
}

func (r *TicketRepository) GetByOwnerID(ctx context.Context, ownerID int64) ([]models.Ticket, error) {
	return r.list(ctx, `WHERE owner_id = $1`, ownerID)
}

func (r *TicketRepository) GetByReservationID(ctx context.Context, reservationID int64) ([]models.Ticket, error) {
	return r.list(ctx, `WHERE reservation_id = $1`, reservationID)
}

func (r *TicketRepository) list(ctx context.Context, where string, args ...interface{}) ([]models.Ticket, error) {
	query := `
		SELECT id, event_id, reservation_id, owner_id, status, qr_code, used_at, created_at, updated_at
		FROM tickets ` + where + `
		ORDER BY id ASC`

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var ticket models.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.EventID,
			&ticket.ReservationID,
			&ticket.OwnerID,
			&ticket.Status,
			&ticket.QRCode,
			&ticket.UsedAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

// Reassign moves a ticket to a new owner with a freshly minted token. Only
// the transfer protocol calls this.
func (r *TicketRepository) Reassign(ctx context.Context, id, newOwnerID int64, newQR string) error {
	query := `UPDATE tickets SET owner_id = $1, qr_code = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.Querier(ctx).ExecContext(ctx, query, newOwnerID, newQR, id)
	return err
}
