package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expenseflow/internal/role"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Create provisions a user with a profile and a role. An empty role means employee.
func (s *Service) Create(ctx context.Context, dto NewAccountDTO) (*Account, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if dto.CompanyID != nil {
		ok, err := s.repo.CompanyExists(ctx, *dto.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("check company: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("company %d does not exist", *dto.CompanyID)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &Account{
		Email:     dto.Email,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		CompanyID: dto.CompanyID,
		Role:      role.Parse(dto.Role),
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, account, string(hash)); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to create account", "error", err, "email", dto.Email)
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account created", "user_id", account.UserID, "role", account.Role)
	return account, nil
}

// Deactivate blocks sign-in and revokes the user's live sessions.
func (s *Service) Deactivate(ctx context.Context, email string) error {
	return s.setActive(ctx, email, false)
}

func (s *Service) Activate(ctx context.Context, email string) error {
	return s.setActive(ctx, email, true)
}

func (s *Service) setActive(ctx context.Context, email string, active bool) error {
	dto := NewAccountDTO{Email: email}
	dto.Normalize()
	if err := s.repo.SetActive(ctx, dto.Email, active); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account status changed", "email", dto.Email, "active", active)
	return nil
}
