package models

import "github.com/shopspring/decimal"

// MetricSeries is one metric's yearly history for a company. YearValues has
// no ordering; sort the years before picking latest and previous.
type MetricSeries struct {
	Company    CompanyKey              `json:"company"`
	Metric     MetricKey               `json:"metric"`
	Currency   string                  `json:"currency"`
	YearValues map[int]decimal.Decimal `json:"year_values"`
	Commentary string                  `json:"commentary"`
}

// YoY is the latest value against the immediately preceding year.
type YoY struct {
	LatestYear    int
	LatestValue   decimal.Decimal
	PreviousYear  int
	PreviousValue decimal.Decimal
	PctChange     decimal.Decimal
}

type ChartPoint struct {
	Year  int
	Value decimal.Decimal
}
