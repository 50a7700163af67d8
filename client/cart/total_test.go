package cart

import "testing"

func TestTotalSumsResolvedEntries(t *testing.T) {
	prices := PriceFunc(func(itemID string) (int64, bool) {
		switch itemID {
		case "item-1":
			return 950, true
		case "item-2":
			return 425, true
		default:
			return 0, false
		}
	})

	entries := map[string]int64{
		"item-1": 2,
		"item-2": 3,
	}

	if got := Total(entries, prices); got != 2*950+3*425 {
		t.Fatalf("unexpected total %d", got)
	}
}

func TestTotalUnresolvableContributesZero(t *testing.T) {
	prices := PriceFunc(func(itemID string) (int64, bool) {
		if itemID == "item-1" {
			return 100, true
		}
		return 0, false
	})

	entries := map[string]int64{
		"item-1":  1,
		"deleted": 5,
	}

	if got := Total(entries, prices); got != 100 {
		t.Fatalf("expected unresolvable entry to contribute zero, got %d", got)
	}
}

func TestTotalEmptyCartIsZero(t *testing.T) {
	prices := PriceFunc(func(string) (int64, bool) { return 100, true })
	if got := Total(nil, prices); got != 0 {
		t.Fatalf("expected zero total, got %d", got)
	}
	if got := Total(map[string]int64{}, prices); got != 0 {
		t.Fatalf("expected zero total, got %d", got)
	}
}

func TestTotalIgnoresNonPositiveQuantities(t *testing.T) {
	prices := PriceFunc(func(string) (int64, bool) { return 100, true })
	entries := map[string]int64{
		"item-1": -2,
		"item-2": 0,
		"item-3": 1,
	}
	if got := Total(entries, prices); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		name  string
		minor int64
		code  string
		want  string
	}{
		{name: "usd", minor: 1900, code: "USD", want: "USD 19.00"},
		{name: "usd fraction", minor: 5, code: "usd", want: "USD 0.05"},
		{name: "zero decimal", minor: 1900, code: "JPY", want: "JPY 1900"},
		{name: "negative", minor: -125, code: "EUR", want: "EUR -1.25"},
		{name: "unknown falls back to usd", minor: 100, code: "???", want: "USD 1.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatAmount(tc.minor, tc.code); got != tc.want {
				t.Fatalf("FormatAmount(%d, %q) = %q, want %q", tc.minor, tc.code, got, tc.want)
			}
		})
	}
}
