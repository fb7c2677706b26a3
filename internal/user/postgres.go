package user

import (
	"context"
	"database/sql"
	"errors"

	"auth-gateway/internal/db"

	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code raised when an insert
// loses the race on the LOWER(email) unique index.
const uniqueViolation = "23505"

type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, is_active, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email))
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, is_active, created_at
		FROM users
		WHERE id = $1
	`, id))
}

func (s *PostgresStore) Create(
	ctx context.Context,
	name string,
	email string,
	password string,
) (*User, error) {

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.insert(ctx, name, email, sql.NullString{String: hash, Valid: true})
}

func (s *PostgresStore) CreateFederated(
	ctx context.Context,
	name string,
	email string,
) (*User, error) {
	return s.insert(ctx, name, email, sql.NullString{})
}

func (s *PostgresStore) VerifyPassword(
	ctx context.Context,
	userID int64,
	password string,
) (bool, error) {

	var hash sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT password_hash FROM users WHERE id = $1
	`, userID).Scan(&hash)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Federated accounts carry no local credential.
	if !hash.Valid {
		return false, nil
	}

	if err := CheckPassword(hash.String, password); err != nil {
		return false, nil
	}

	return true, nil
}

func (s *PostgresStore) insert(
	ctx context.Context,
	name string,
	email string,
	hash sql.NullString,
) (*User, error) {

	u := &User{
		Name:     name,
		Email:    email,
		IsActive: true,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (display_name, email, password_hash, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING id, created_at
	`, name, email, hash).Scan(&u.ID, &u.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return u, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsActive, &u.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}
