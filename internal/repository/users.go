package repository

import (
	"context"
	"database/sql"

	"bilet/internal/database"
	"bilet/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, `WHERE user_id = $1`, id)
}

// GetByEmail is the receiver lookup for ticket transfers, and the identity
// lookup for basic auth.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) get(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, email, password_hash, password_plain, first_name, surname,
		       birthday, registered_at, is_active, last_logged_in
		FROM users ` + where

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, args...).Scan(
		&user.UserID,
		&user.Email,
		&user.PasswordHash,
		&user.PasswordPlain,
		&user.FirstName,
		&user.Surname,
		&user.Birthday,
		&user.RegisteredAt,
		&user.IsActive,
		&user.LastLoggedIn,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, password_plain, first_name, surname, birthday, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING user_id, registered_at, last_logged_in`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.PasswordPlain,
		user.FirstName,
		user.Surname,
		user.Birthday,
		user.IsActive,
	).Scan(&user.UserID, &user.RegisteredAt, &user.LastLoggedIn)
}

func (r *UserRepository) TouchLastLoggedIn(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_logged_in = NOW() WHERE user_id = $1`
	_, err := r.db.Querier(ctx).ExecContext(ctx, query, id)
	return err
}
