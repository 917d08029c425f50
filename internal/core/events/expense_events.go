package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseSubmitted = "expense.submitted"
	EventTypeExpenseApproved  = "expense.approved"
	EventTypeExpenseRejected  = "expense.rejected"
)

// ExpenseEventTypes lists every expense lifecycle event, in lifecycle order.
var ExpenseEventTypes = []string{
	EventTypeExpenseSubmitted,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
}

// ExpenseSnapshot is the expense state carried by lifecycle events.
type ExpenseSnapshot struct {
	ExpenseID               int64
	UserID                  int64
	CompanyID               int64
	Amount                  float64
	Currency                string
	AmountInCompanyCurrency float64
	Status                  string
	DecidedBy               *int64
	Comment                 *string
}

type ExpenseEvent struct {
	BaseEvent
	Expense ExpenseSnapshot `json:"-"`
}

func newExpenseEvent(eventType string, s ExpenseSnapshot, at time.Time) *ExpenseEvent {
	data := map[string]interface{}{
		"expense_id":                 s.ExpenseID,
		"user_id":                    s.UserID,
		"company_id":                 s.CompanyID,
		"amount":                     s.Amount,
		"currency":                   s.Currency,
		"amount_in_company_currency": s.AmountInCompanyCurrency,
		"status":                     s.Status,
	}
	if s.DecidedBy != nil {
		data["decided_by"] = *s.DecidedBy
	}
	if s.Comment != nil {
		data["comment"] = *s.Comment
	}

	return &ExpenseEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: at,
			Data:      data,
		},
		Expense: s,
	}
}

func NewExpenseSubmittedEvent(s ExpenseSnapshot, at time.Time) *ExpenseEvent {
	return newExpenseEvent(EventTypeExpenseSubmitted, s, at)
}

// NewExpenseDecidedEvent picks approved or rejected from the snapshot status.
func NewExpenseDecidedEvent(s ExpenseSnapshot, at time.Time) *ExpenseEvent {
	eventType := EventTypeExpenseApproved
	if s.Status == "rejected" {
		eventType = EventTypeExpenseRejected
	}
	return newExpenseEvent(eventType, s, at)
}
