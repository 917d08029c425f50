package user

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/expenseflow/internal/role"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Account is a provisioned user: credentials, profile and role together.
type Account struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CompanyID *int64    `json:"company_id,omitempty"`
	Role      role.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type RepositoryAPI interface {
	// Create writes the user, profile and role rows atomically and sets
	// UserID and CreatedAt on the account.
	Create(ctx context.Context, account *Account, passwordHash string) error
	SetActive(ctx context.Context, email string, active bool) error
	CompanyExists(ctx context.Context, companyID int64) (bool, error)
}
