package fxrate

import "time"

type ExchangeRate struct {
	ID            int64     `gorm:"primaryKey"`
	Base          string    `gorm:"column:base;not null"`
	Quote         string    `gorm:"column:quote;not null"`
	Rate          float64   `gorm:"column:rate;not null"`
	EffectiveDate time.Time `gorm:"column:effective_date;type:date;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}
