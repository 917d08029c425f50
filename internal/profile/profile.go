package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/expenseflow/internal/role"
)

// ErrNotFound is returned by repositories when a profile or company row is missing.
var ErrNotFound = errors.New("profile record not found")

type Profile struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CompanyID *int64    `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type Company struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currency_code"`
}

// DirectoryEntry is one row of the admin user directory.
type DirectoryEntry struct {
	Profile
	FullName string    `json:"full_name"`
	Role     role.Role `json:"role"`
}

// Me is the caller's own profile as returned by GET /users/me.
type Me struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Role      role.Role `json:"role"`
	Company   *Company  `json:"company"`
}

type RepositoryAPI interface {
	GetByUserID(ctx context.Context, userID int64) (*Profile, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*Profile, error)
	GetCompany(ctx context.Context, companyID int64) (*Company, error)
}

// RoleLookupAPI reads stored role values for many users at once.
type RoleLookupAPI interface {
	GetRoles(ctx context.Context, userIDs []int64) (map[int64]string, error)
}
