package db

import (
	"context"
	"database/sql"
)

type DB struct {
	*sql.DB
}

const gatewayMigration = `
CREATE TABLE IF NOT EXISTS users (
    id bigserial PRIMARY KEY,
    display_name text NOT NULL,
    email text NOT NULL,
    password_hash text,
    is_active boolean NOT NULL DEFAULT true,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique
ON users (LOWER(email));
`

// RunGatewayMigration applies the baseline schema. password_hash is
// nullable: federated accounts are created without local credentials.
func RunGatewayMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, gatewayMigration)
	return err
}
