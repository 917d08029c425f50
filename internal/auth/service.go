package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrRecordNotFound is returned by repositories when a user or session does not exist.
var ErrRecordNotFound = errors.New("auth record not found")

// Service is the main auth service with dependencies
type Service struct {
	repo       RepositoryAPI
	tokens     TokenGeneratorAPI
	roles      RoleResolverAPI
	companies  CompanyLookupAPI
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, roles RoleResolverAPI, companies CompanyLookupAPI, sessionTTL time.Duration, logger *slog.Logger) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &Service{
		repo:       repo,
		tokens:     tokens,
		roles:      roles,
		companies:  companies,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// SignIn verifies credentials, opens a session and returns its token pair.
func (s *Service) SignIn(ctx context.Context, dto SignInDTO) (AuthTokens, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	creds, err := s.repo.GetCredentialsByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "failed to load credentials", "error", err)
		return AuthTokens{}, internal.NewInternalError("Failed to sign in", err)
	}

	if err := VerifyPassword(creds.PasswordHash, dto.Password); err != nil {
		s.logger.InfoContext(ctx, "sign-in rejected: wrong password", "user_id", creds.UserID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	now := s.now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    creds.UserID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "failed to create session", "error", err, "user_id", creds.UserID)
		return AuthTokens{}, internal.NewInternalError("Failed to sign in", err)
	}

	tokens, err := s.issue(creds, session)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("Failed to sign in", err)
	}

	s.logger.InfoContext(ctx, "user signed in", "user_id", creds.UserID, "session_id", session.ID)
	return tokens, nil
}

// Refresh exchanges a refresh token for a new pair on the same session.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error) {
	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	claims, err := s.tokens.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		if errors.Is(err, errTokenExpired) {
			return AuthTokens{}, internal.ErrTokenExpired
		}
		return AuthTokens{}, internal.ErrInvalidToken
	}

	session, err := s.liveSession(ctx, claims)
	if err != nil {
		return AuthTokens{}, internal.ErrSessionNotFound
	}

	creds, err := s.repo.GetCredentialsByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return AuthTokens{}, internal.ErrInvalidToken
		}
		s.logger.ErrorContext(ctx, "failed to load credentials for refresh", "error", err, "user_id", claims.UserID)
		return AuthTokens{}, internal.NewInternalError("Failed to refresh session", err)
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	tokens, err := s.issue(creds, session)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("Failed to refresh session", err)
	}
	return tokens, nil
}

// SignOut ends the caller's session; every token bound to it stops working.
func (s *Service) SignOut(ctx context.Context, p internal.Principal) error {
	if err := s.repo.DeleteSession(ctx, p.SessionID); err != nil && !errors.Is(err, ErrRecordNotFound) {
		s.logger.ErrorContext(ctx, "failed to delete session", "error", err, "session_id", p.SessionID)
		return internal.NewInternalError("Failed to sign out", err)
	}
	s.logger.InfoContext(ctx, "user signed out", "user_id", p.UserID, "session_id", p.SessionID)
	return nil
}

// Authenticate turns a bearer token into a Principal. Every failure, including
// a failed session lookup, reports ErrUnauthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (internal.Principal, error) {
	if token == "" {
		return internal.Principal{}, internal.ErrUnauthenticated
	}

	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		s.logger.DebugContext(ctx, "access token rejected", "error", err)
		return internal.Principal{}, internal.ErrUnauthenticated
	}

	session, err := s.liveSession(ctx, claims)
	if err != nil {
		return internal.Principal{}, internal.ErrUnauthenticated
	}

	companyID, err := s.companies.CompanyIDForUser(ctx, claims.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve company for user", "error", err, "user_id", claims.UserID)
		companyID = nil
	}

	return internal.Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		CompanyID: companyID,
		Role:      s.roles.Resolve(ctx, claims.UserID),
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// ReapExpiredSessions deletes sessions whose expiry has passed.
func (s *Service) ReapExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions removed", "count", n)
	}
	return n, nil
}

func (s *Service) liveSession(ctx context.Context, claims *Claims) (*Session, error) {
	session, err := s.repo.GetSession(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.logger.WarnContext(ctx, "session lookup failed", "error", err, "session_id", claims.SessionID)
		}
		return nil, err
	}
	if session.UserID != claims.UserID {
		s.logger.WarnContext(ctx, "session does not belong to token subject", "session_id", session.ID, "user_id", claims.UserID)
		return nil, ErrRecordNotFound
	}
	if session.Expired(s.now()) {
		return nil, ErrRecordNotFound
	}
	return session, nil
}

func (s *Service) issue(creds *Credentials, session *Session) (AuthTokens, error) {
	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(creds.UserID, creds.Email, session.ID)
	if err != nil {
		return AuthTokens{}, err
	}
	if expiresAt.After(session.ExpiresAt) {
		expiresAt = session.ExpiresAt
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(creds.UserID, creds.Email, session.ID, session.ExpiresAt)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
