package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMinUnitPrice(t *testing.T) {
	cases := []struct {
		total, qty, coef string
		want             string
	}{
		{"10", "2", "5", "1"},
		{"9.99", "3", "1", "3.33"},
		{"5", "0", "1", "0"},
		{"5", "1", "0", "0"},
		{"1", "3", "1", "0.33"},
	}
	for _, tc := range cases {
		got := MinUnitPrice(decimal.RequireFromString(tc.total), decimal.RequireFromString(tc.qty), decimal.RequireFromString(tc.coef))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("MinUnitPrice(%s,%s,%s) = %s, want %s", tc.total, tc.qty, tc.coef, got, tc.want)
		}
	}
}

func TestDailyAveragePrice(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		want       string
	}{
		{"single day", "2025-03-01", "2025-03-01", "30"},
		{"inclusive range", "2025-03-01", "2025-03-10", "3"},
		{"inverted window", "2025-03-10", "2025-03-01", "0"},
		{"bad start", "03/01/2025", "2025-03-10", "0"},
		{"empty end", "2025-03-01", "", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DailyAveragePrice(decimal.NewFromInt(30), tc.start, tc.end)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValidDate(t *testing.T) {
	for s, ok := range map[string]bool{
		"2025-01-02":          true,
		"2025-01-02 10:11:12": true,
		"2025/01/02":          false,
		"":                    false,
	} {
		if ValidDate(s) != ok {
			t.Fatalf("ValidDate(%q) = %v, want %v", s, !ok, ok)
		}
	}
}

func TestValidDay(t *testing.T) {
	for s, ok := range map[string]bool{
		"2025-01-02":          true,
		"2025-01-02 10:11:12": false,
		"2025-02-30":          false,
		"":                    false,
	} {
		if ValidDay(s) != ok {
			t.Fatalf("ValidDay(%q) = %v, want %v", s, !ok, ok)
		}
	}
}

func TestPatchConstructors(t *testing.T) {
	p := TagPatch("")
	if p.Tag == nil || *p.Tag != "" {
		t.Fatalf("clearing tag must keep an explicit empty value")
	}
	w := UseWindowPatch("2025-01-01", "2025-01-31")
	if *w.StartUseTime != "2025-01-01" || *w.EndUseTime != "2025-01-31" || w.Tag != nil {
		t.Fatalf("unexpected use window patch: %+v", w)
	}
	if r := ReceivedPatch(); *r.ReceiveStatus != string(Received) {
		t.Fatalf("received patch = %q", *r.ReceiveStatus)
	}
}

func TestValidateUseWindow(t *testing.T) {
	if err := ValidateUseWindow("2025-01-01", " "); err != ErrEmptyUseWindow {
		t.Fatalf("expected ErrEmptyUseWindow, got %v", err)
	}
	if err := ValidateUseWindow("2025-01-01", "2025-01-02"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatisticalStatusAndLabel(t *testing.T) {
	if StatisticalStatus(Received) != Counted || StatisticalStatus(Pending) != NotCounted {
		t.Fatal("statistical status mismatch")
	}
	if NoTag.Label() != "无" || Repurchase.Label() != "回购" {
		t.Fatal("tag label mismatch")
	}
}
