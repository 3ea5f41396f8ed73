package metrics

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/dyike/CortexDash/models"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"CNY": "¥",
	"RMB": "¥",
	"JPY": "¥",
	"HKD": "HK$",
	"EUR": "€",
	"GBP": "£",
}

var scales = []struct {
	threshold decimal.Decimal
	suffix    string
}{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
	{decimal.New(1, 3), "K"},
}

// CurrencySymbol maps an ISO code to its symbol. Values that already are
// symbols pass through; unknown codes are followed by a space.
func CurrencySymbol(currency string) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return ""
	}
	if sym, ok := currencySymbols[strings.ToUpper(currency)]; ok {
		return sym
	}
	for _, r := range currency {
		if unicode.IsLetter(r) {
			return strings.ToUpper(currency) + " "
		}
	}
	return currency
}

// FormatValue renders v the way the metric card shows it.
func FormatValue(metric models.Metric, v decimal.Decimal, currency string) string {
	switch metric.Kind {
	case models.KindAmount:
		return signed(v, CurrencySymbol(currency)+Compact(v.Abs()))
	case models.KindPerShare:
		return signed(v, CurrencySymbol(currency)+v.Abs().StringFixed(2))
	case models.KindPercent:
		return v.Round(1).String() + "%"
	default:
		return v.Round(2).String()
	}
}

// Compact shortens large magnitudes: 16680000000 -> 16.68B.
func Compact(v decimal.Decimal) string {
	abs := v.Abs()
	for _, s := range scales {
		if abs.GreaterThanOrEqual(s.threshold) {
			return v.Div(s.threshold).StringFixed(2) + s.suffix
		}
	}
	return v.StringFixed(2)
}

// FormatDelta renders a percentage change with an explicit sign: +41%, -10%.
func FormatDelta(pct decimal.Decimal) string {
	r := pct.Round(1)
	switch r.Sign() {
	case 1:
		return "+" + r.String() + "%"
	case -1:
		return r.String() + "%"
	default:
		return "0%"
	}
}

func signed(v decimal.Decimal, s string) string {
	if v.Sign() < 0 {
		return "-" + s
	}
	return s
}
