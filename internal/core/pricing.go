// Package core provides the consumption domain types and price calculations.
//
// This file contains the unit and daily price derivations the backend stores
// alongside each record. The in-memory backend uses them to behave like the
// real one.
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// MinUnitPrice divides the total by quantity × unit coefficient, rounded to
// two places. A zero divisor yields zero.
//
// Example: 10 yuan for 2 packs of 5 sheets -> MinUnitPrice(10, 2, 5) = 1.00
func MinUnitPrice(total, quantity, coefficient decimal.Decimal) decimal.Decimal {
	divisor := quantity.Mul(coefficient)
	if divisor.IsZero() {
		return decimal.Zero
	}
	return total.Div(divisor).Round(2)
}

// DailyAveragePrice spreads the total over the usage window, counting both the
// start and end day. Malformed dates or an inverted window yield zero.
func DailyAveragePrice(total decimal.Decimal, start, end string) decimal.Decimal {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return decimal.Zero
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return decimal.Zero
	}
	days := int64(e.Sub(s).Hours()/24) + 1
	if days <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(days)).Round(2)
}

// ValidDay accepts only "YYYY-MM-DD", the layout use windows are stored in.
func ValidDay(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidDate accepts "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS".
func ValidDate(s string) bool {
	if _, err := time.Parse(DateTimeLayout, s); err == nil {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
