package cart

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// PriceLookup resolves unit prices in minor currency units. The bool reports
// whether the item could be resolved.
type PriceLookup interface {
	Price(itemID string) (int64, bool)
}

// PriceFunc adapts ordinary functions to PriceLookup.
type PriceFunc func(itemID string) (int64, bool)

// Price implements PriceLookup.
func (f PriceFunc) Price(itemID string) (int64, bool) {
	return f(itemID)
}

// Total sums entry quantities against resolved unit prices. Entries whose
// price cannot be resolved contribute zero; arithmetic stays in int64 minor
// units so totals are exact.
func Total(entries map[string]int64, prices PriceLookup) int64 {
	if len(entries) == 0 || prices == nil {
		return 0
	}
	var total int64
	for itemID, qty := range entries {
		if qty <= 0 {
			continue
		}
		price, ok := prices.Price(itemID)
		if !ok {
			continue
		}
		total += price * qty
	}
	return total
}

// FormatAmount renders a minor-unit amount using the ISO currency's cash
// scale, e.g. 1900 → "USD 19.00", or "JPY 1900" for zero-decimal currencies.
func FormatAmount(minor int64, code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.USD
	}
	scale, _ := currency.Cash.Rounding(unit)

	negative := minor < 0
	if negative {
		minor = -minor
	}

	var rendered string
	if scale <= 0 {
		rendered = fmt.Sprintf("%d", minor)
	} else {
		pow := int64(1)
		for i := 0; i < scale; i++ {
			pow *= 10
		}
		rendered = fmt.Sprintf("%d.%0*d", minor/pow, scale, minor%pow)
	}
	if negative {
		rendered = "-" + rendered
	}
	return fmt.Sprintf("%v %s", unit, rendered)
}
