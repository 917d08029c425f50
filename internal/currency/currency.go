package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/frahmantamala/expenseflow/internal"
)

// ErrRateUnavailable is returned by providers that have no rate for a pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// RateProvider returns how many units of quote one unit of base buys on a date.
type RateProvider interface {
	Rate(ctx context.Context, base, quote string, on time.Time) (float64, error)
}

type Conversion struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted"`
}

type Converter struct {
	rates  RateProvider
	logger *slog.Logger
}

func NewConverter(rates RateProvider, logger *slog.Logger) *Converter {
	return &Converter{rates: rates, logger: logger}
}

// Convert turns amount in from into to as of on. Same-currency conversion
// never touches the provider.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string, on time.Time) (Conversion, error) {
	from = Normalize(from)
	to = Normalize(to)

	if from == to {
		return Conversion{From: from, To: to, Amount: amount, Rate: 1, Converted: Round(amount)}, nil
	}

	rate, err := c.rates.Rate(ctx, from, to, on)
	if err != nil {
		if errors.Is(err, ErrRateUnavailable) {
			c.logger.WarnContext(ctx, "no exchange rate", "from", from, "to", to, "on", on.Format(time.DateOnly))
			return Conversion{}, internal.ErrRateNotFound.WithCause(err)
		}
		c.logger.ErrorContext(ctx, "failed to load exchange rate", "error", err, "from", from, "to", to)
		return Conversion{}, internal.NewInternalError("Failed to convert currency", err)
	}

	return Conversion{
		From:      from,
		To:        to,
		Amount:    amount,
		Rate:      rate,
		Converted: Round(amount * rate),
	}, nil
}

// Normalize trims and upper-cases a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Round rounds to two decimal places, half away from zero.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

func pairKey(base, quote string) string {
	return fmt.Sprintf("%s_%s", strings.ToLower(base), strings.ToLower(quote))
}
