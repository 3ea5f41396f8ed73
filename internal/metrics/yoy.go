package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dyike/CortexDash/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeYoY compares the latest year against the one before it. It reports
// false when the series has no data points.
//
// A single year compares against itself (0% change). A zero previous value
// yields 0% instead of a division error. Otherwise the change is relative to
// the magnitude of the previous value, so a shrinking loss reads as positive.
func ComputeYoY(series *models.MetricSeries) (models.YoY, bool) {
	if series == nil || len(series.YearValues) == 0 {
		return models.YoY{}, false
	}

	years := sortedYears(series.YearValues)
	latest := years[len(years)-1]
	out := models.YoY{
		LatestYear:    latest,
		LatestValue:   series.YearValues[latest],
		PreviousYear:  latest,
		PreviousValue: series.YearValues[latest],
		PctChange:     decimal.Zero,
	}
	if len(years) == 1 {
		return out, true
	}

	prev := years[len(years)-2]
	out.PreviousYear = prev
	out.PreviousValue = series.YearValues[prev]
	if out.PreviousValue.IsZero() {
		return out, true
	}

	out.PctChange = out.LatestValue.Sub(out.PreviousValue).
		Div(out.PreviousValue.Abs()).
		Mul(hundred)
	return out, true
}

// ChartPoints projects the series into (year, value) pairs in ascending year
// order for the bar chart.
func ChartPoints(series *models.MetricSeries) []models.ChartPoint {
	if series == nil {
		return nil
	}
	years := sortedYears(series.YearValues)
	points := make([]models.ChartPoint, 0, len(years))
	for _, y := range years {
		points = append(points, models.ChartPoint{Year: y, Value: series.YearValues[y]})
	}
	return points
}

func sortedYears(values map[int]decimal.Decimal) []int {
	years := make([]int, 0, len(values))
	for y := range values {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
