package expense

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/core/events"
	"github.com/frahmantamala/expenseflow/internal/role"
	"github.com/frahmantamala/expenseflow/pkg/id"
)

type Service struct {
	repo      RepositoryAPI
	companies CompanyAPI
	converter ConverterAPI
	events    EventPublisher
	logger    *slog.Logger

	newID func() int64
	now   func() time.Time
}

func NewService(repo RepositoryAPI, companies CompanyAPI, converter ConverterAPI, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		companies: companies,
		converter: converter,
		events:    publisher,
		logger:    logger,
		newID:     id.New,
		now:       time.Now,
	}
}

// Submit records a new pending expense for the caller's company, converting
// the amount into the company currency as of the expense date.
func (s *Service) Submit(ctx context.Context, p internal.Principal, dto SubmitExpenseDTO) (*Expense, error) {
	if !p.Can(role.CapSubmitExpense) {
		return nil, internal.ErrAccessDenied
	}
	if !p.HasCompany() {
		s.logger.WarnContext(ctx, "submit rejected: no company", "user_id", p.UserID)
		return nil, internal.ErrCompanyNotFound
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	companyCurrency, err := s.companies.CompanyCurrency(ctx, *p.CompanyID)
	if err != nil {
		return nil, err
	}

	expenseDate := dto.Date()
	conversion, err := s.converter.Convert(ctx, *dto.Amount, dto.CurrencyCode, companyCurrency, expenseDate)
	if err != nil {
		return nil, err
	}
	if conversion.Converted >= maxConvertedAmount {
		s.logger.WarnContext(ctx, "converted amount out of range",
			"user_id", p.UserID,
			"amount", *dto.Amount,
			"currency", dto.CurrencyCode,
			"converted", conversion.Converted)
		return nil, internal.NewValidationFieldError("amount", "amount is too large in the company currency", internal.ErrCodeInvalidAmount)
	}

	now := s.now().UTC()
	e := &Expense{
		ID:                      s.newID(),
		UserID:                  p.UserID,
		CompanyID:               *p.CompanyID,
		Amount:                  *dto.Amount,
		CurrencyCode:            dto.CurrencyCode,
		AmountInCompanyCurrency: conversion.Converted,
		ExchangeRate:            conversion.Rate,
		Category:                dto.Category,
		Description:             dto.Description,
		ExpenseDate:             expenseDate,
		Status:                  StatusPending,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "failed to create expense", "error", err, "user_id", p.UserID)
		return nil, internal.NewInternalError("Failed to submit expense", err)
	}

	s.logger.InfoContext(ctx, "expense submitted",
		"expense_id", e.ID,
		"user_id", e.UserID,
		"company_id", e.CompanyID,
		"amount", e.Amount,
		"currency", e.CurrencyCode,
		"amount_in_company_currency", e.AmountInCompanyCurrency)

	s.publish(ctx, events.NewExpenseSubmittedEvent(e.snapshot(), now))
	return e, nil
}

// ListMine returns the caller's own expenses, newest first.
func (s *Service) ListMine(ctx context.Context, p internal.Principal, page Page) ([]*Expense, error) {
	if !p.Can(role.CapViewOwnExpenses) {
		return nil, internal.ErrAccessDenied
	}
	return s.list(ctx, Filter{UserID: p.UserID, Page: page})
}

// ListPending returns the pending expenses of the caller's company.
func (s *Service) ListPending(ctx context.Context, p internal.Principal, page Page) ([]*Expense, error) {
	if !p.Can(role.CapViewPending) {
		s.logger.WarnContext(ctx, "pending list denied", "user_id", p.UserID, "role", p.Role)
		return nil, internal.ErrAccessDenied
	}
	if !p.HasCompany() {
		return nil, internal.ErrCompanyNotFound
	}
	return s.list(ctx, Filter{CompanyID: *p.CompanyID, Status: StatusPending, Page: page})
}

// ListAll returns every expense of the caller's company, optionally by status.
func (s *Service) ListAll(ctx context.Context, p internal.Principal, status Status, page Page) ([]*Expense, error) {
	if !p.Can(role.CapViewAllExpenses) {
		s.logger.WarnContext(ctx, "all-expenses list denied", "user_id", p.UserID, "role", p.Role)
		return nil, internal.ErrAccessDenied
	}
	if !p.HasCompany() {
		return nil, internal.ErrCompanyNotFound
	}
	return s.list(ctx, Filter{CompanyID: *p.CompanyID, Status: status, Page: page})
}

// Visible returns every expense the caller may see: the company's for
// approvers, otherwise their own.
func (s *Service) Visible(ctx context.Context, p internal.Principal) ([]*Expense, error) {
	if p.Can(role.CapViewAllExpenses) && p.HasCompany() {
		return s.list(ctx, Filter{CompanyID: *p.CompanyID})
	}
	return s.list(ctx, Filter{UserID: p.UserID})
}

// Get returns one expense. Expenses the caller may not see are reported as
// missing rather than forbidden.
func (s *Service) Get(ctx context.Context, p internal.Principal, expenseID int64) (*Expense, error) {
	e, err := s.load(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e.UserID == p.UserID {
		return e, nil
	}
	if p.Can(role.CapViewAllExpenses) && p.HasCompany() && e.CompanyID == *p.CompanyID {
		return e, nil
	}
	return nil, internal.ErrExpenseNotFound
}

func (s *Service) Approve(ctx context.Context, p internal.Principal, expenseID int64, dto DecisionDTO) (*Expense, error) {
	return s.decide(ctx, p, expenseID, DecisionApprove, dto)
}

func (s *Service) Reject(ctx context.Context, p internal.Principal, expenseID int64, dto DecisionDTO) (*Expense, error) {
	return s.decide(ctx, p, expenseID, DecisionReject, dto)
}

// decide applies an approver's decision. Two approvers racing on the same
// pending expense both pass the status check and the later write wins.
func (s *Service) decide(ctx context.Context, p internal.Principal, expenseID int64, d Decision, dto DecisionDTO) (*Expense, error) {
	if !p.Can(role.CapDecideExpense) {
		s.logger.WarnContext(ctx, "decision denied", "user_id", p.UserID, "role", p.Role, "expense_id", expenseID)
		return nil, internal.ErrAccessDenied
	}
	if !p.HasCompany() {
		return nil, internal.ErrCompanyNotFound
	}

	dto.Normalize()
	if err := dto.Validate(d); err != nil {
		return nil, err
	}

	e, err := s.load(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if e.CompanyID != *p.CompanyID {
		s.logger.WarnContext(ctx, "decision on another company's expense",
			"user_id", p.UserID,
			"expense_id", expenseID,
			"expense_company_id", e.CompanyID)
		return nil, internal.ErrExpenseNotFound
	}

	next, err := Transition(e.Status, d)
	if err != nil {
		s.logger.WarnContext(ctx, "expense already decided",
			"expense_id", expenseID,
			"current_status", e.Status,
			"decision", d)
		return nil, err
	}

	record := DecisionRecord{
		Status:    next,
		Comment:   dto.CommentPtr(),
		DecidedBy: p.UserID,
		DecidedAt: s.now().UTC(),
	}
	if err := s.repo.UpdateDecision(ctx, e.ID, record); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		s.logger.ErrorContext(ctx, "failed to update expense status", "error", err, "expense_id", expenseID, "status", next)
		return nil, internal.NewInternalError("Failed to update expense", err)
	}

	e.Status = record.Status
	e.DecisionComment = record.Comment
	e.DecidedBy = &record.DecidedBy
	e.DecidedAt = &record.DecidedAt
	e.UpdatedAt = record.DecidedAt

	s.logger.InfoContext(ctx, "expense decided",
		"expense_id", e.ID,
		"status", e.Status,
		"decided_by", p.UserID)

	s.publish(ctx, events.NewExpenseDecidedEvent(e.snapshot(), record.DecidedAt))
	return e, nil
}

func (s *Service) load(ctx context.Context, expenseID int64) (*Expense, error) {
	e, err := s.repo.GetByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		s.logger.ErrorContext(ctx, "failed to load expense", "error", err, "expense_id", expenseID)
		return nil, internal.NewInternalError("Failed to load expense", err)
	}
	return e, nil
}

func (s *Service) list(ctx context.Context, f Filter) ([]*Expense, error) {
	expenses, err := s.repo.List(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list expenses", "error", err,
			"user_id", f.UserID, "company_id", f.CompanyID, "status", f.Status)
		return nil, internal.NewInternalError("Failed to load expenses", err)
	}
	return expenses, nil
}

// publish never fails the request; the write already happened.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "error", err, "event_type", event.EventType())
	}
}
