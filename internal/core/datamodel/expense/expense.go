package expense

import "time"

type Expense struct {
	ID                      int64      `gorm:"primaryKey;autoIncrement:false"`
	UserID                  int64      `gorm:"column:user_id;index;not null"`
	CompanyID               int64      `gorm:"column:company_id;index;not null"`
	Amount                  float64    `gorm:"column:amount;not null"`
	CurrencyCode            string     `gorm:"column:currency_code;not null"`
	AmountInCompanyCurrency float64    `gorm:"column:amount_in_company_currency;not null"`
	ExchangeRate            float64    `gorm:"column:exchange_rate;not null;default:1"`
	Category                string     `gorm:"column:category;not null"`
	Description             string     `gorm:"column:description;not null"`
	ExpenseDate             time.Time  `gorm:"column:expense_date;type:date;not null"`
	Status                  string     `gorm:"column:status;index;not null"`
	DecisionComment         *string    `gorm:"column:decision_comment"`
	DecidedBy               *int64     `gorm:"column:decided_by"`
	DecidedAt               *time.Time `gorm:"column:decided_at"`
	CreatedAt               time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}
