package dashboard

import (
	"context"
	"sort"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/currency"
	"github.com/frahmantamala/expenseflow/internal/expense"
)

type Stats struct {
	PendingCount  int             `json:"pending_count"`
	ApprovedCount int             `json:"approved_count"`
	RejectedCount int             `json:"rejected_count"`
	TotalAmount   float64         `json:"total_amount"`
	ProfileCount  int64           `json:"profile_count"`
	ByCategory    []CategoryTotal `json:"by_category"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
}

// ExpenseSource returns every expense the principal may see.
type ExpenseSource interface {
	Visible(ctx context.Context, p internal.Principal) ([]*expense.Expense, error)
}

type ProfileCounter interface {
	CountByCompany(ctx context.Context, companyID int64) (int64, error)
}

// Compute derives the dashboard numbers from a fetched record set. TotalAmount
// sums amount_in_company_currency over every expense regardless of status.
func Compute(expenses []*expense.Expense, profileCount int64) Stats {
	stats := Stats{ProfileCount: profileCount}
	byCategory := map[string]*CategoryTotal{}

	var total float64
	for _, e := range expenses {
		switch e.Status {
		case expense.StatusPending:
			stats.PendingCount++
		case expense.StatusApproved:
			stats.ApprovedCount++
		case expense.StatusRejected:
			stats.RejectedCount++
		}
		total += e.AmountInCompanyCurrency

		ct, ok := byCategory[e.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Category}
			byCategory[e.Category] = ct
		}
		ct.Count++
		ct.Total += e.AmountInCompanyCurrency
	}
	stats.TotalAmount = currency.Round(total)

	stats.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		ct.Total = currency.Round(ct.Total)
		stats.ByCategory = append(stats.ByCategory, *ct)
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		if stats.ByCategory[i].Total != stats.ByCategory[j].Total {
			return stats.ByCategory[i].Total > stats.ByCategory[j].Total
		}
		return stats.ByCategory[i].Category < stats.ByCategory[j].Category
	})

	return stats
}
