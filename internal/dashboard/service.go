package dashboard

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/expense"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	expenses ExpenseSource
	profiles ProfileCounter
	logger   *slog.Logger
}

func NewService(expenses ExpenseSource, profiles ProfileCounter, logger *slog.Logger) *Service {
	return &Service{
		expenses: expenses,
		profiles: profiles,
		logger:   logger,
	}
}

// Stats loads the visible expenses and the company head count in parallel
// and recomputes the numbers on every call.
func (s *Service) Stats(ctx context.Context, p internal.Principal) (*Stats, error) {
	var (
		expenses     []*expense.Expense
		profileCount int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.Visible(gctx, p)
		return err
	})
	if p.HasCompany() {
		companyID := *p.CompanyID
		g.Go(func() error {
			var err error
			profileCount, err = s.profiles.CountByCompany(gctx, companyID)
			if err != nil {
				s.logger.ErrorContext(gctx, "failed to count profiles", "error", err, "company_id", companyID)
				return internal.NewInternalError("Failed to load dashboard", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := Compute(expenses, profileCount)
	return &stats, nil
}
