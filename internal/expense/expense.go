package expense

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/frahmantamala/expenseflow/internal/core/common/validation"
	expenseDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/expense"
	"github.com/frahmantamala/expenseflow/internal/core/events"
	"github.com/frahmantamala/expenseflow/internal/currency"
)

// ErrNotFound is returned by repositories for a missing expense row.
var ErrNotFound = errors.New("expense record not found")

type Expense struct {
	ID                      int64      `json:"id,string"`
	UserID                  int64      `json:"user_id"`
	CompanyID               int64      `json:"company_id"`
	Amount                  float64    `json:"amount"`
	CurrencyCode            string     `json:"currency_code"`
	AmountInCompanyCurrency float64    `json:"amount_in_company_currency"`
	ExchangeRate            float64    `json:"exchange_rate"`
	Category                string     `json:"category"`
	Description             string     `json:"description"`
	ExpenseDate             time.Time  `json:"-"`
	Status                  Status     `json:"status"`
	DecisionComment         *string    `json:"decision_comment,omitempty"`
	DecidedBy               *int64     `json:"decided_by,omitempty"`
	DecidedAt               *time.Time `json:"decided_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// Page bounds a list query. Limit zero means no bound.
type Page struct {
	Limit  int
	Offset int
}

// Filter selects expenses for a list query; zero fields do not filter.
// Results are always newest first.
type Filter struct {
	UserID    int64
	CompanyID int64
	Status    Status
	Page
}

// DecisionRecord is the full set of columns written by an approve or reject.
type DecisionRecord struct {
	Status    Status
	Comment   *string
	DecidedBy int64
	DecidedAt time.Time
}

type RepositoryAPI interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	List(ctx context.Context, f Filter) ([]*Expense, error)
	UpdateDecision(ctx context.Context, id int64, d DecisionRecord) error
}

// CompanyAPI resolves a company's reporting currency.
type CompanyAPI interface {
	CompanyCurrency(ctx context.Context, companyID int64) (string, error)
}

type ConverterAPI interface {
	Convert(ctx context.Context, amount float64, from, to string, on time.Time) (currency.Conversion, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// MarshalJSON renders expense_date as a plain calendar date.
func (e Expense) MarshalJSON() ([]byte, error) {
	type alias Expense
	return json.Marshal(struct {
		alias
		ExpenseDate string `json:"expense_date"`
	}{
		alias:       alias(e),
		ExpenseDate: e.ExpenseDate.Format(validation.DateLayout),
	})
}

func (e *Expense) snapshot() events.ExpenseSnapshot {
	return events.ExpenseSnapshot{
		ExpenseID:               e.ID,
		UserID:                  e.UserID,
		CompanyID:               e.CompanyID,
		Amount:                  e.Amount,
		Currency:                e.CurrencyCode,
		AmountInCompanyCurrency: e.AmountInCompanyCurrency,
		Status:                  e.Status.String(),
		DecidedBy:               e.DecidedBy,
		Comment:                 e.DecisionComment,
	}
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:                      e.ID,
		UserID:                  e.UserID,
		CompanyID:               e.CompanyID,
		Amount:                  e.Amount,
		CurrencyCode:            e.CurrencyCode,
		AmountInCompanyCurrency: e.AmountInCompanyCurrency,
		ExchangeRate:            e.ExchangeRate,
		Category:                e.Category,
		Description:             e.Description,
		ExpenseDate:             e.ExpenseDate,
		Status:                  e.Status.String(),
		DecisionComment:         e.DecisionComment,
		DecidedBy:               e.DecidedBy,
		DecidedAt:               e.DecidedAt,
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	status, ok := ParseStatus(e.Status)
	if !ok {
		// Unknown stored values are never decidable.
		status = Status(e.Status)
	}
	return &Expense{
		ID:                      e.ID,
		UserID:                  e.UserID,
		CompanyID:               e.CompanyID,
		Amount:                  e.Amount,
		CurrencyCode:            e.CurrencyCode,
		AmountInCompanyCurrency: e.AmountInCompanyCurrency,
		ExchangeRate:            e.ExchangeRate,
		Category:                e.Category,
		Description:             e.Description,
		ExpenseDate:             e.ExpenseDate,
		Status:                  status,
		DecisionComment:         e.DecisionComment,
		DecidedBy:               e.DecidedBy,
		DecidedAt:               e.DecidedAt,
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.UpdatedAt,
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}
