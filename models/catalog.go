package models

import "strings"

type CompanyKey string

type MetricKey string

const (
	MetricRevenue         MetricKey = "revenue"
	MetricNetIncome       MetricKey = "net_income"
	MetricEPS             MetricKey = "eps"
	MetricOperatingMargin MetricKey = "operating_margin"
	MetricROE             MetricKey = "roe"
	MetricFreeCashFlow    MetricKey = "free_cash_flow"
	MetricDebtToEquity    MetricKey = "debt_to_equity"
	MetricPERatio         MetricKey = "pe_ratio"
)

// ValueKind decides how a metric value is formatted.
type ValueKind int

const (
	KindAmount   ValueKind = iota // currency amount, shown compact ($16.68B)
	KindPerShare                  // currency per share ($1.62)
	KindPercent                   // percentage points (45%)
	KindRatio                     // plain ratio (0.5)
)

type Company struct {
	Key  CompanyKey `json:"key"`
	Name string     `json:"name"`
}

type Metric struct {
	Key   MetricKey `json:"key"`
	Label string    `json:"label"`
	Kind  ValueKind `json:"kind"`
}

var defaultCompanies = []Company{
	{Key: "nvidia", Name: "Nvidia"},
	{Key: "miniso", Name: "MINISO"},
	{Key: "apple", Name: "Apple"},
}

var metricSet = []Metric{
	{Key: MetricRevenue, Label: "Revenue", Kind: KindAmount},
	{Key: MetricNetIncome, Label: "Net Income", Kind: KindAmount},
	{Key: MetricEPS, Label: "EPS", Kind: KindPerShare},
	{Key: MetricOperatingMargin, Label: "Operating Margin", Kind: KindPercent},
	{Key: MetricROE, Label: "ROE", Kind: KindPercent},
	{Key: MetricFreeCashFlow, Label: "Free Cash Flow", Kind: KindAmount},
	{Key: MetricDebtToEquity, Label: "Debt to Equity", Kind: KindRatio},
	{Key: MetricPERatio, Label: "P/E Ratio", Kind: KindRatio},
}

// Catalog is the closed set of company and metric keys the dashboard may send
// to the backend.
type Catalog struct {
	companies []Company
	metrics   []Metric
}

func DefaultCatalog() *Catalog {
	return NewCatalog(nil)
}

// NewCatalog builds a catalog with the given companies, or the built-in ones
// when companies is empty. Keys are lower-cased; a missing name falls back to
// the key.
func NewCatalog(companies []Company) *Catalog {
	if len(companies) == 0 {
		companies = defaultCompanies
	}
	c := &Catalog{
		companies: make([]Company, 0, len(companies)),
		metrics:   append([]Metric(nil), metricSet...),
	}
	for _, co := range companies {
		key := CompanyKey(strings.ToLower(strings.TrimSpace(string(co.Key))))
		if key == "" {
			continue
		}
		name := strings.TrimSpace(co.Name)
		if name == "" {
			name = string(key)
		}
		c.companies = append(c.companies, Company{Key: key, Name: name})
	}
	return c
}

func (c *Catalog) Companies() []Company {
	return append([]Company(nil), c.companies...)
}

func (c *Catalog) Metrics() []Metric {
	return append([]Metric(nil), c.metrics...)
}

func (c *Catalog) Company(key CompanyKey) (Company, bool) {
	for _, co := range c.companies {
		if co.Key == key {
			return co, true
		}
	}
	return Company{}, false
}

func (c *Catalog) Metric(key MetricKey) (Metric, bool) {
	for _, m := range c.metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// LookupCompany accepts a key or a display name in any case.
func (c *Catalog) LookupCompany(s string) (Company, bool) {
	s = strings.TrimSpace(s)
	for _, co := range c.companies {
		if strings.EqualFold(string(co.Key), s) || strings.EqualFold(co.Name, s) {
			return co, true
		}
	}
	return Company{}, false
}

// LookupMetric accepts a key or a label in any case.
func (c *Catalog) LookupMetric(s string) (Metric, bool) {
	s = strings.TrimSpace(s)
	for _, m := range c.metrics {
		if strings.EqualFold(string(m.Key), s) || strings.EqualFold(m.Label, s) {
			return m, true
		}
	}
	return Metric{}, false
}
