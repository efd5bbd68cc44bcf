package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createEventsTable,
		createReservationsTable,
		createPaymentsTable,
		createTicketsTable,
		createTicketTransfersTable,
		createReservationsDueIndex,
		createTransfersDueIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    password_plain VARCHAR(255),
    first_name VARCHAR(100) NOT NULL,
    surname VARCHAR(100) NOT NULL,
    birthday DATE,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    last_logged_in TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    title VARCHAR(500) NOT NULL,
    description TEXT,
    venue VARCHAR(255) NOT NULL,
    provider VARCHAR(100) NOT NULL DEFAULT 'bilet',
    starts_at TIMESTAMP NOT NULL,
    tickets_total INTEGER NOT NULL,
    tickets_available INTEGER NOT NULL,
    price DECIMAL(12,2) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (tickets_available >= 0),
    CHECK (tickets_available <= tickets_total)
);`

const createReservationsTable = `
CREATE TABLE IF NOT EXISTS reservations (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(user_id),
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'PAID', 'EXPIRED', 'CANCELLED'))
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id SERIAL PRIMARY KEY,
    reservation_id INTEGER UNIQUE NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'COMPLETED',
    amount DECIMAL(12,2) NOT NULL,
    provider VARCHAR(100) NOT NULL,
    external_ref VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    reservation_id INTEGER NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
    owner_id INTEGER NOT NULL REFERENCES users(user_id),
    status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
    qr_code VARCHAR(255) UNIQUE NOT NULL,
    used_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('ACTIVE', 'USED', 'CANCELLED', 'TRANSFERRED'))
);`

const createTicketTransfersTable = `
CREATE TABLE IF NOT EXISTS ticket_transfers (
    id SERIAL PRIMARY KEY,
    ticket_id INTEGER NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
    from_user_id INTEGER NOT NULL REFERENCES users(user_id),
    to_user_id INTEGER NOT NULL REFERENCES users(user_id),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    expires_at TIMESTAMP NOT NULL,
    responded_at TIMESTAMP,
    old_qr VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'accepted', 'rejected', 'expired'))
);
CREATE UNIQUE INDEX IF NOT EXISTS ticket_transfers_one_pending_idx
ON ticket_transfers (ticket_id) WHERE status = 'pending';`

const createReservationsDueIndex = `
CREATE INDEX IF NOT EXISTS reservations_pending_due_idx
ON reservations (expires_at) WHERE status = 'PENDING';`

const createTransfersDueIndex = `
CREATE INDEX IF NOT EXISTS ticket_transfers_pending_due_idx
ON ticket_transfers (expires_at) WHERE status = 'pending';`
