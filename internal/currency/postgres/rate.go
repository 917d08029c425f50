package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	fxDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/fxrate"
	"github.com/frahmantamala/expenseflow/internal/currency"
	"gorm.io/gorm"
)

// RateRepository reads the exchange_rates table.
type RateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) *RateRepository {
	return &RateRepository{db: db}
}

// Rate returns the most recent rate effective on or before on.
func (r *RateRepository) Rate(ctx context.Context, base, quote string, on time.Time) (float64, error) {
	base = currency.Normalize(base)
	quote = currency.Normalize(quote)

	var row fxDatamodel.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("base = ? AND quote = ? AND effective_date <= ?", base, quote, dateOnly(on)).
		Order("effective_date DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%s/%s on %s: %w", base, quote, on.Format(time.DateOnly), currency.ErrRateUnavailable)
		}
		return 0, err
	}
	return row.Rate, nil
}

// Upsert stores a rate for a pair and day, replacing an existing one.
func (r *RateRepository) Upsert(ctx context.Context, base, quote string, rate float64, on time.Time) error {
	row := fxDatamodel.ExchangeRate{
		Base:          currency.Normalize(base),
		Quote:         currency.Normalize(quote),
		Rate:          rate,
		EffectiveDate: dateOnly(on),
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("base = ? AND quote = ? AND effective_date = ?", row.Base, row.Quote, row.EffectiveDate).
			Delete(&fxDatamodel.ExchangeRate{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
