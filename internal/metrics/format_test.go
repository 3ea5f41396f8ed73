package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dyike/CortexDash/models"
)

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "$", CurrencySymbol("usd"))
	assert.Equal(t, "¥", CurrencySymbol("CNY"))
	assert.Equal(t, "HK$", CurrencySymbol("HKD"))
	assert.Equal(t, "CHF ", CurrencySymbol("chf"))
	assert.Equal(t, "$", CurrencySymbol("$"))
	assert.Equal(t, "", CurrencySymbol(" "))
}

func TestFormatValue(t *testing.T) {
	catalog := models.DefaultCatalog()
	metric := func(k models.MetricKey) models.Metric {
		m, _ := catalog.Metric(k)
		return m
	}

	tests := []struct {
		name     string
		metric   models.MetricKey
		value    string
		currency string
		want     string
	}{
		{"billions", models.MetricRevenue, "16680000000", "USD", "$16.68B"},
		{"negative millions", models.MetricNetIncome, "-2000000", "USD", "-$2.00M"},
		{"small amount", models.MetricFreeCashFlow, "950", "CNY", "¥950.00"},
		{"per share", models.MetricEPS, "1.6", "USD", "$1.60"},
		{"percent", models.MetricOperatingMargin, "45.123", "USD", "45.1%"},
		{"ratio", models.MetricDebtToEquity, "0.5", "USD", "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatValue(metric(tt.metric), decimal.RequireFromString(tt.value), tt.currency)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "1.50T", Compact(decimal.RequireFromString("1500000000000")))
	assert.Equal(t, "2.35K", Compact(decimal.NewFromInt(2346)))
	assert.Equal(t, "12.00", Compact(decimal.NewFromInt(12)))
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+41%", FormatDelta(decimal.NewFromInt(41)))
	assert.Equal(t, "-10%", FormatDelta(decimal.NewFromInt(-10)))
	assert.Equal(t, "0%", FormatDelta(decimal.Zero))
	assert.Equal(t, "+12.3%", FormatDelta(decimal.RequireFromString("12.345")))
	assert.Equal(t, "0%", FormatDelta(decimal.RequireFromString("0.04")))
}
