package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/role"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Credentials is what sign-in needs to know about an account.
type Credentials struct {
	UserID       int64
	Email        string
	PasswordHash string
	IsActive     bool
}

// Session is a live sign-in. Tokens are only honoured while their session row exists.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionView is the response body of GET /auth/session.
type SessionView struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CompanyID *int64    `json:"company_id"`
	Role      role.Role `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewSessionView(p internal.Principal) SessionView {
	return SessionView{
		UserID:    p.UserID,
		Email:     p.Email,
		CompanyID: p.CompanyID,
		Role:      p.Role,
		ExpiresAt: p.ExpiresAt,
	}
}

// Claims represents JWT token claims
type Claims struct {
	UserID    int64  `json:"uid"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type RepositoryAPI interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	GetCredentialsByID(ctx context.Context, userID int64) (*Credentials, error)
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, email, sessionID string) (string, time.Time, error)
	GenerateRefreshToken(userID int64, email, sessionID string, expiresAt time.Time) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// RoleResolverAPI is satisfied by role.Resolver.
type RoleResolverAPI interface {
	Resolve(ctx context.Context, userID int64) role.Role
}

// CompanyLookupAPI returns the company of a user's profile, or nil when the
// profile or its company is missing.
type CompanyLookupAPI interface {
	CompanyIDForUser(ctx context.Context, userID int64) (*int64, error)
}

type ServiceAPI interface {
	SignIn(ctx context.Context, dto SignInDTO) (AuthTokens, error)
	Refresh(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error)
	SignOut(ctx context.Context, p internal.Principal) error
	Authenticate(ctx context.Context, token string) (internal.Principal, error)
}
