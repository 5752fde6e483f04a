// Package ui holds the presentation primitives shared by every page: toast
// notifications, confirm and alert dialogs, value formatters and call-rate
// wrappers.
package ui

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout        = "2006-01-02"
	dateTimeLayout    = "2006-01-02 15:04:05"
	displayLayout     = "2006年01月02日 15:04:05"
	defaultCurrencyDP = 2
)

// displayInputs are tried in order by FormatDateDisplay.
var displayInputs = []string{
	dateTimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	dateLayout,
}

// FormatDate renders t as YYYY-MM-DD. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// FormatDateTime renders t as YYYY-MM-DD HH:mm:ss. The zero time renders as "".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

// FormatDateDisplay re-renders a backend timestamp as YYYY年MM月DD日 HH:mm:ss.
// Input it cannot parse is returned unchanged.
func FormatDateDisplay(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range displayInputs {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Format(displayLayout)
		}
	}
	return s
}

// FormatCurrency renders amount with a fixed number of decimals. An absent
// amount renders as "".
func FormatCurrency(amount decimal.NullDecimal, decimals int32) string {
	if !amount.Valid {
		return ""
	}
	return amount.Decimal.StringFixed(decimals)
}

// FormatAmount is the template-facing variant of FormatCurrency with two
// decimals. It accepts the numeric shapes the views carry; nil and unknown
// types render as "".
func FormatAmount(v any) string {
	switch a := v.(type) {
	case decimal.Decimal:
		return FormatCurrency(decimal.NewNullDecimal(a), defaultCurrencyDP)
	case decimal.NullDecimal:
		return FormatCurrency(a, defaultCurrencyDP)
	case *decimal.Decimal:
		if a == nil {
			return ""
		}
		return FormatCurrency(decimal.NewNullDecimal(*a), defaultCurrencyDP)
	case float64:
		return FormatCurrency(decimal.NewNullDecimal(decimal.NewFromFloat(a)), defaultCurrencyDP)
	case int:
		return FormatCurrency(decimal.NewNullDecimal(decimal.NewFromInt(int64(a))), defaultCurrencyDP)
	case int64:
		return FormatCurrency(decimal.NewNullDecimal(decimal.NewFromInt(a)), defaultCurrencyDP)
	default:
		return ""
	}
}
