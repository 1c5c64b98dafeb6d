package currency

import "math"

// RateTable maps from -> to -> multiplier. Only direct and reciprocal
// lookups are defined; there is no multi-hop conversion.
//
// A RateTable is never mutated after construction, so it is safe to share
// between goroutines.
type RateTable struct {
	rates map[string]map[string]float64
}

// Overrides is the shape used by configuration to add or replace rates.
type Overrides map[string]map[string]float64

var defaultRates = Overrides{
	"EUR": {"USD": 1.09, "GBP": 0.86, "CHF": 0.96, "JPY": 162.5, "CAD": 1.48, "AUD": 1.65, "BRL": 5.45, "CNY": 7.85, "MAD": 10.85, "XOF": 655.957},
	"USD": {"GBP": 0.79, "CHF": 0.88, "JPY": 149.2, "CAD": 1.36, "AUD": 1.52, "BRL": 5.0, "CNY": 7.2, "MAD": 9.95},
	"GBP": {"CHF": 1.12, "JPY": 189.0},
}

// DefaultRates returns the built-in rate table.
func DefaultRates() RateTable {
	return NewRateTable(defaultRates)
}

// NewRateTable copies src into a new table. Non-positive and non-finite
// rates are dropped.
func NewRateTable(src Overrides) RateTable {
	t := RateTable{rates: make(map[string]map[string]float64, len(src))}
	t.merge(src)
	return t
}

// With returns a new table containing t's rates with overrides applied on
// top. t itself is left untouched.
func (t RateTable) With(overrides Overrides) RateTable {
	out := RateTable{rates: make(map[string]map[string]float64, len(t.rates))}
	out.merge(Overrides(t.rates))
	out.merge(overrides)
	return out
}

func (t *RateTable) merge(src Overrides) {
	for from, row := range src {
		for to, rate := range row {
			if rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) || from == to {
				continue
			}
			dst, ok := t.rates[from]
			if !ok {
				dst = make(map[string]float64, len(row))
				t.rates[from] = dst
			}
			dst[to] = rate
		}
	}
}

// Direct returns the rate stored for from -> to, without reciprocal lookup.
func (t RateTable) Direct(from, to string) (float64, bool) {
	r, ok := t.rates[from][to]
	return r, ok
}

// Resolve returns the multiplier converting an amount in from into to.
// Identical codes yield 1. A missing pair also yields 1: the conversion
// degrades to identity instead of failing.
func (t RateTable) Resolve(from, to string) float64 {
	if from == to {
		return 1
	}
	if r, ok := t.rates[from][to]; ok {
		return r
	}
	if r, ok := t.rates[to][from]; ok {
		return 1 / r
	}
	return 1
}

// Has reports whether Resolve can answer from -> to without falling back
// to identity.
func (t RateTable) Has(from, to string) bool {
	if from == to {
		return true
	}
	if _, ok := t.rates[from][to]; ok {
		return true
	}
	_, ok := t.rates[to][from]
	return ok
}

// Convert expresses amount (in from) in to.
func (t RateTable) Convert(amount float64, from, to string) float64 {
	return amount * t.Resolve(from, to)
}

// Pairs returns the number of direct entries in the table.
func (t RateTable) Pairs() int {
	n := 0
	for _, row := range t.rates {
		n += len(row)
	}
	return n
}
