package display

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dyike/CortexDash/internal/backend"
	"github.com/dyike/CortexDash/internal/history"
	"github.com/dyike/CortexDash/internal/metrics"
	"github.com/dyike/CortexDash/models"
)

func revenue() models.Metric {
	m, _ := models.DefaultCatalog().Metric(models.MetricRevenue)
	return m
}

func series(values map[int]string) *models.MetricSeries {
	s := &models.MetricSeries{Currency: "USD", YearValues: map[int]decimal.Decimal{}}
	for y, v := range values {
		s.YearValues[y] = decimal.RequireFromString(v)
	}
	return s
}

func TestHeader(t *testing.T) {
	out := NewRenderer(80).Header(models.Company{Key: "nvidia", Name: "Nvidia"})
	assert.Contains(t, out, "Currently Analyzing: Nvidia")
}

func TestTranscript(t *testing.T) {
	r := NewRenderer(80)
	assert.Contains(t, r.Transcript(nil), "No questions yet")

	out := r.Transcript([]models.Turn{
		models.UserTurn{Text: "How did revenue change?"},
		models.BotTurn{
			Text:    "Revenue grew strongly.",
			Sources: []models.SourceRef{{Filename: "annual.pdf", PageNumber: 12, Excerpt: "Data center"}},
		},
	})
	assert.Contains(t, out, "How did revenue change?")
	assert.Contains(t, out, "Revenue grew")
	assert.Contains(t, out, "File: annual.pdf")
	assert.Contains(t, out, "Page: 12")
	assert.Contains(t, out, "Data center")
	assert.Less(t, strings.Index(out, "How did revenue"), strings.Index(out, "annual.pdf"))
}

func TestError(t *testing.T) {
	r := NewRenderer(80)
	out := r.Error(&backend.StatusError{Op: "POST /ask", StatusCode: 500})
	assert.Contains(t, out, "Something went wrong")

	out = r.Error(errors.New("dial tcp: connection refused"))
	assert.NotContains(t, out, "dial tcp")
}

func TestChart(t *testing.T) {
	r := NewRenderer(80)
	s := series(map[int]string{2023: "20", 2021: "-10", 2022: "5"})
	out := r.Chart(revenue(), metrics.ChartPoints(s), s.Currency)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Revenue")
	assert.True(t, strings.HasPrefix(lines[1], "2021"))
	assert.True(t, strings.HasPrefix(lines[2], "2022"))
	assert.True(t, strings.HasPrefix(lines[3], "2023"))

	assert.Equal(t, barWidth, strings.Count(lines[3], "█"))
	assert.Equal(t, barWidth/2, strings.Count(lines[1], "█"))
	assert.Contains(t, lines[1], "-$10.00")
	assert.Contains(t, lines[3], "$20.00")

	assert.Contains(t, r.Chart(revenue(), nil, "USD"), "no data")
}

func TestMetricCard(t *testing.T) {
	r := NewRenderer(80)

	out := r.MetricCard(revenue(), series(map[int]string{2022: "11900000000", 2023: "16680000000"}))
	assert.Contains(t, out, "Revenue (2023)")
	assert.Contains(t, out, "$16.68B")
	assert.Contains(t, out, "+40.2%")
	assert.Contains(t, out, "vs 2022")

	out = r.MetricCard(revenue(), series(map[int]string{2023: "5"}))
	assert.Contains(t, out, "0%")
	assert.NotContains(t, out, "vs")

	out = r.MetricCard(revenue(), series(nil))
	assert.Contains(t, out, "No data")
}

func TestMetricViewIncludesCommentary(t *testing.T) {
	s := series(map[int]string{2023: "5"})
	s.Commentary = "Growth driven by data center."
	out := NewRenderer(80).MetricView(revenue(), s)
	assert.Contains(t, out, "Growth driven")
}

func TestInsights(t *testing.T) {
	catalog := models.DefaultCatalog()
	list := catalog.Metrics()[:3]
	results := map[models.MetricKey]metrics.Result{
		list[0].Key: {Series: series(map[int]string{2022: "100", 2023: "150"})},
		list[1].Key: {Err: &backend.StatusError{Op: "POST /get-financial-data", StatusCode: 502}},
	}

	out := NewRenderer(120).Insights(list, results)
	assert.Contains(t, out, "Key Financial Insights")
	assert.Contains(t, out, list[0].Label)
	assert.Contains(t, out, "+50%")
	assert.Contains(t, out, list[1].Label)
	assert.Contains(t, out, "Something")
	assert.NotContains(t, out, list[2].Label)
}

func TestRecent(t *testing.T) {
	r := NewRenderer(80)
	catalog := models.DefaultCatalog()
	assert.Contains(t, r.Recent(nil, catalog, ""), "No analyses yet")

	now := time.Now()
	out := r.Recent([]history.Summary{
		{SessionID: "b", Company: "apple", CreatedAt: now, Queries: 2, LastQuestion: "What about margins?"},
		{SessionID: "a", Company: "nvidia", CreatedAt: now.Add(-time.Hour)},
	}, catalog, "b")

	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[1], "Apple - 2 queries")
	assert.Contains(t, lines[1], "(current analysis)")
	assert.Contains(t, lines[2], "What about margins?")
	assert.Contains(t, lines[3], "Nvidia - 0 queries")
	assert.NotContains(t, lines[3], "current")
}
