package expense

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/category"
	"github.com/frahmantamala/expenseflow/internal/core/common/validation"
)

const (
	maxDescriptionLength = 500
	maxCommentLength     = 500

	// Bounds of the NUMERIC(15,2) and NUMERIC(18,2) expense columns.
	maxAmount          = 1e13
	maxConvertedAmount = 1e16
)

// SubmitExpenseDTO is the body of POST /expenses. Status is deliberately
// absent: every new expense starts pending.
type SubmitExpenseDTO struct {
	Amount       *float64 `json:"amount"`
	CurrencyCode string   `json:"currency_code"`
	Category     string   `json:"category"`
	ExpenseDate  string   `json:"expense_date"`
	Description  string   `json:"description"`
}

func (dto *SubmitExpenseDTO) Normalize() {
	dto.CurrencyCode = strings.ToUpper(strings.TrimSpace(dto.CurrencyCode))
	c, _ := category.Parse(dto.Category)
	dto.Category = string(c)
	dto.ExpenseDate = strings.TrimSpace(dto.ExpenseDate)
	dto.Description = strings.TrimSpace(dto.Description)
}

func (dto SubmitExpenseDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("amount", dto.Amount).Required().Money(maxAmount, errors.ErrCodeInvalidAmount)
	v.Field("currency_code", dto.CurrencyCode).Required().CurrencyCode()
	v.Field("category", dto.Category).Required().OneOf(category.Names(), errors.ErrCodeInvalidCategory)
	v.Field("expense_date", dto.ExpenseDate).Required().Date()
	v.Field("description", dto.Description).Required().MaxLength(maxDescriptionLength)
	return v.Validate()
}

// Date returns the parsed expense date; call only after Validate succeeds.
func (dto SubmitExpenseDTO) Date() time.Time {
	d, _ := time.Parse(validation.DateLayout, dto.ExpenseDate)
	return d
}

// DecisionDTO is the optional body of approve and the required body of reject.
type DecisionDTO struct {
	Comment string `json:"comment"`
}

func (dto *DecisionDTO) Normalize() {
	dto.Comment = strings.TrimSpace(dto.Comment)
}

func (dto DecisionDTO) Validate(d Decision) *errors.AppError {
	if d == DecisionReject && dto.Comment == "" {
		return errors.ErrCommentRequired
	}
	v := validation.NewValidator()
	v.Field("comment", dto.Comment).MaxLength(maxCommentLength)
	return v.Validate()
}

// CommentPtr returns nil for an empty comment so nothing is stored.
func (dto DecisionDTO) CommentPtr() *string {
	if dto.Comment == "" {
		return nil
	}
	c := dto.Comment
	return &c
}
