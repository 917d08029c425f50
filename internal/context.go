package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/expenseflow/internal/role"
)

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

// Principal is the authenticated caller of a request. It is built once by the
// auth middleware and never mutated afterwards.
type Principal struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CompanyID *int64    `json:"company_id"`
	Role      role.Role `json:"role"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (p Principal) Can(c role.Capability) bool {
	return p.Role.Can(c)
}

// HasCompany reports whether the caller's profile resolved to a company.
func (p Principal) HasCompany() bool {
	return p.CompanyID != nil && *p.CompanyID > 0
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ContextPrincipalKey).(Principal)
	if !ok || p.UserID == 0 {
		return Principal{}, false
	}
	return p, true
}
