// Package money holds the precision rules for amounts stored in
// numeric(12,2) columns.
package money

import "github.com/shopspring/decimal"

// Places is the number of fractional digits every stored amount keeps.
const Places = 2

// limit is the first value numeric(12,2) cannot hold.
var limit = decimal.New(1, 12-Places)

// ValidPrice reports whether d is positive, has at most Places fractional
// digits and fits the column.
func ValidPrice(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(Places)) && d.LessThan(limit)
}

// PriceRule is the message shown for a price ValidPrice rejects.
const PriceRule = "must be greater than zero with at most 2 decimal places"
