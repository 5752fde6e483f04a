package ui

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		name     string
		amount   decimal.NullDecimal
		decimals int32
		want     string
	}{
		{"absent", decimal.NullDecimal{}, 2, ""},
		{"integer", decimal.NewNullDecimal(decimal.NewFromInt(3)), 2, "3.00"},
		{"rounds", decimal.NewNullDecimal(decimal.RequireFromString("1.005")), 2, "1.01"},
		{"no decimals", decimal.NewNullDecimal(decimal.RequireFromString("12.5")), 0, "13"},
		{"three decimals", decimal.NewNullDecimal(decimal.RequireFromString("0.1")), 3, "0.100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatCurrency(tc.amount, tc.decimals); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	var nilDec *decimal.Decimal
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{nilDec, ""},
		{decimal.NewFromInt(3), "3.00"},
		{decimal.NullDecimal{}, ""},
		{2.5, "2.50"},
		{7, "7.00"},
		{"text", ""},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.want {
			t.Fatalf("FormatAmount(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDatePadsFields(t *testing.T) {
	d := time.Date(2025, time.March, 4, 5, 6, 7, 0, time.Local)
	if got := FormatDate(d); got != "2025-03-04" {
		t.Fatalf("FormatDate = %q", got)
	}
	if got := FormatDateTime(d); got != "2025-03-04 05:06:07" {
		t.Fatalf("FormatDateTime = %q", got)
	}
	if FormatDate(time.Time{}) != "" || FormatDateTime(time.Time{}) != "" {
		t.Fatal("zero time must format as empty string")
	}
}

func TestFormatDateDisplay(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2025-03-04 05:06:07", "2025年03月04日 05:06:07"},
		{"2025-03-04", "2025年03月04日 00:00:00"},
		{"2025-03-04T05:06", "2025年03月04日 05:06:00"},
		{"", ""},
		{"not a date", "not a date"},
	}
	for _, tc := range cases {
		if got := FormatDateDisplay(tc.in); got != tc.want {
			t.Fatalf("FormatDateDisplay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
