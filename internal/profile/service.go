package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/role"
)

type Service struct {
	repo   RepositoryAPI
	roles  RoleLookupAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleLookupAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		roles:  roles,
		logger: logger,
	}
}

// CompanyIDForUser returns nil, nil when the user has no profile or the
// profile has no company.
func (s *Service) CompanyIDForUser(ctx context.Context, userID int64) (*int64, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if p.CompanyID == nil || *p.CompanyID <= 0 {
		return nil, nil
	}
	return p.CompanyID, nil
}

// CompanyCurrency returns the reporting currency of a company.
func (s *Service) CompanyCurrency(ctx context.Context, companyID int64) (string, error) {
	c, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", internal.ErrCompanyNotFound
		}
		s.logger.ErrorContext(ctx, "failed to load company", "error", err, "company_id", companyID)
		return "", internal.NewInternalError("Failed to load company", err)
	}
	return c.CurrencyCode, nil
}

func (s *Service) Me(ctx context.Context, p internal.Principal) (*Me, error) {
	prof, err := s.repo.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrProfileNotFound
		}
		s.logger.ErrorContext(ctx, "failed to load profile", "error", err, "user_id", p.UserID)
		return nil, internal.NewInternalError("Failed to load profile", err)
	}

	me := &Me{
		UserID:    p.UserID,
		Email:     prof.Email,
		FirstName: prof.FirstName,
		LastName:  prof.LastName,
		FullName:  prof.FullName(),
		Role:      p.Role,
	}

	if prof.CompanyID != nil {
		company, err := s.repo.GetCompany(ctx, *prof.CompanyID)
		switch {
		case err == nil:
			me.Company = company
		case errors.Is(err, ErrNotFound):
			s.logger.WarnContext(ctx, "profile points at a missing company", "user_id", p.UserID, "company_id", *prof.CompanyID)
		default:
			s.logger.ErrorContext(ctx, "failed to load company", "error", err, "company_id", *prof.CompanyID)
			return nil, internal.NewInternalError("Failed to load profile", err)
		}
	}

	return me, nil
}

// Directory lists the profiles of the caller's company, newest first, each
// with its resolved role. Admins only.
func (s *Service) Directory(ctx context.Context, p internal.Principal) ([]DirectoryEntry, error) {
	if !p.Can(role.CapViewUserDirectory) {
		s.logger.WarnContext(ctx, "directory access denied", "user_id", p.UserID, "role", p.Role)
		return nil, internal.ErrAccessDenied
	}
	if !p.HasCompany() {
		return nil, internal.ErrCompanyNotFound
	}

	profiles, err := s.repo.ListByCompany(ctx, *p.CompanyID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list profiles", "error", err, "company_id", *p.CompanyID)
		return nil, internal.NewInternalError("Failed to load users", err)
	}

	userIDs := make([]int64, len(profiles))
	for i, prof := range profiles {
		userIDs[i] = prof.UserID
	}

	stored, err := s.roles.GetRoles(ctx, userIDs)
	if err != nil {
		// Roles are display-only here; showing everyone as employee is safe.
		s.logger.ErrorContext(ctx, "failed to load roles for directory", "error", err)
		stored = map[int64]string{}
	}

	entries := make([]DirectoryEntry, len(profiles))
	for i, prof := range profiles {
		entries[i] = DirectoryEntry{
			Profile:  *prof,
			FullName: prof.FullName(),
			Role:     role.Parse(stored[prof.UserID]),
		}
	}
	return entries, nil
}
