package currency

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StaticRateProvider serves fixed rates from configuration, keyed "usd_idr".
// The inverse of a configured pair is derived when only one direction is set.
type StaticRateProvider struct {
	rates map[string]float64
}

func NewStaticRateProvider(rates map[string]float64) *StaticRateProvider {
	normalized := make(map[string]float64, len(rates))
	for k, v := range rates {
		if v <= 0 {
			continue
		}
		normalized[normalizeKey(k)] = v
	}
	return &StaticRateProvider{rates: normalized}
}

func (p *StaticRateProvider) Rate(_ context.Context, base, quote string, _ time.Time) (float64, error) {
	if r, ok := p.rates[pairKey(base, quote)]; ok {
		return r, nil
	}
	if r, ok := p.rates[pairKey(quote, base)]; ok {
		return 1 / r, nil
	}
	return 0, fmt.Errorf("%s/%s: %w", Normalize(base), Normalize(quote), ErrRateUnavailable)
}

func normalizeKey(k string) string {
	parts := strings.FieldsFunc(k, func(r rune) bool {
		return r == '_' || r == '/' || r == '-'
	})
	if len(parts) != 2 {
		return strings.ToLower(strings.TrimSpace(k))
	}
	return pairKey(Normalize(parts[0]), Normalize(parts[1]))
}
