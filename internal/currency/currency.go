// Package currency holds the supported currency list and the bilateral
// exchange-rate table used to express expenses in a project's budget currency.
package currency

import "sort"

// Currency describes one supported currency.
type Currency struct {
	Code   string
	Name   string
	Symbol string
}

var currencies = map[string]Currency{
	"EUR": {Code: "EUR", Name: "Euro", Symbol: "€"},
	"USD": {Code: "USD", Name: "US Dollar", Symbol: "$"},
	"GBP": {Code: "GBP", Name: "British Pound", Symbol: "£"},
	"CHF": {Code: "CHF", Name: "Swiss Franc", Symbol: "CHF"},
	"JPY": {Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
	"CAD": {Code: "CAD", Name: "Canadian Dollar", Symbol: "CA$"},
	"AUD": {Code: "AUD", Name: "Australian Dollar", Symbol: "A$"},
	"BRL": {Code: "BRL", Name: "Brazilian Real", Symbol: "R$"},
	"CNY": {Code: "CNY", Name: "Chinese Yuan", Symbol: "CN¥"},
	"MAD": {Code: "MAD", Name: "Moroccan Dirham", Symbol: "DH"},
	"XOF": {Code: "XOF", Name: "West African CFA Franc", Symbol: "CFA"},
}

// Lookup returns the currency registered under code.
func Lookup(code string) (Currency, bool) {
	c, ok := currencies[code]
	return c, ok
}

// Symbol returns the display symbol for code, or the code itself when the
// currency is unknown.
func Symbol(code string) string {
	if c, ok := currencies[code]; ok {
		return c.Symbol
	}
	return code
}

// Known reports whether code is a supported currency.
func Known(code string) bool {
	_, ok := currencies[code]
	return ok
}

// All returns every supported currency sorted by code.
func All() []Currency {
	out := make([]Currency, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})
	return out
}
