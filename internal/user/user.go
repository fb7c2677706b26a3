package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("user: not found")
	ErrDuplicateEmail = errors.New("user: email already registered")
)

// User is the identity record owned by the credential store. The auth
// core reads and creates users; it never mutates ID.
type User struct {
	ID        int64
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}

// Store is the credential-store collaborator the auth core consumes.
// Email lookups are case-insensitive; creation relies on the store's
// uniqueness constraint to resolve concurrent registrations for the
// same email (the loser sees ErrDuplicateEmail).
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)

	// Create registers a local account with credentials.
	Create(ctx context.Context, name, email, password string) (*User, error)

	// CreateFederated registers an account without local credentials.
	// Such accounts can only authenticate through an external provider.
	CreateFederated(ctx context.Context, name, email string) (*User, error)

	// VerifyPassword reports whether the plaintext password matches the
	// stored credential. Accounts without credentials never match.
	VerifyPassword(ctx context.Context, userID int64, password string) (bool, error)
}
