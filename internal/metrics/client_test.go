package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/CortexDash/config"
	"github.com/dyike/CortexDash/internal/backend"
	"github.com/dyike/CortexDash/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log, _ := test.NewNullLogger()
	transport := backend.NewClient(&config.Config{BackendURL: srv.URL, RequestTimeoutSec: 5}, log)
	return NewClient(transport, models.DefaultCatalog(), WithLogger(log))
}

func jsonHandler(t *testing.T, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-financial-data", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFetchMetric(t *testing.T) {
	var req financialDataRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"year_metrics":{"2022":150.5,"2021":"100"},"currency":"USD","comment":"Revenue rose."}`))
	})

	series, err := c.FetchMetric(context.Background(), "nvidia", models.MetricRevenue)
	require.NoError(t, err)

	assert.Equal(t, financialDataRequest{Company: "nvidia", Metric: "revenue"}, req)
	assert.Equal(t, models.CompanyKey("nvidia"), series.Company)
	assert.Equal(t, models.MetricRevenue, series.Metric)
	assert.Equal(t, "USD", series.Currency)
	assert.Equal(t, "Revenue rose.", series.Commentary)
	require.Len(t, series.YearValues, 2)
	assert.True(t, series.YearValues[2021].Equal(decimal.NewFromInt(100)))
	assert.True(t, series.YearValues[2022].Equal(decimal.RequireFromString("150.5")))
}

func TestFetchMetricEmptyYears(t *testing.T) {
	c := newTestClient(t, jsonHandler(t, `{"year_metrics":{},"currency":"USD","commentary":"No filings yet."}`))

	series, err := c.FetchMetric(context.Background(), "miniso", models.MetricEPS)
	require.NoError(t, err)
	assert.Empty(t, series.YearValues)
	assert.Equal(t, "No filings yet.", series.Commentary)

	_, ok := ComputeYoY(series)
	assert.False(t, ok)
	assert.Empty(t, ChartPoints(series))
}

func TestFetchMetricStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	series, err := c.FetchMetric(context.Background(), "apple", models.MetricROE)
	assert.Nil(t, series)
	var serr *backend.StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
}

func TestFetchMetricMalformed(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing year_metrics", `{"currency":"USD","comment":"x"}`, "year_metrics"},
		{"missing currency", `{"year_metrics":{},"comment":"x"}`, "currency"},
		{"missing comment", `{"year_metrics":{},"currency":"USD"}`, "comment"},
		{"bad year", `{"year_metrics":{"FY22":1},"currency":"USD","comment":"x"}`, "year_metrics.FY22"},
		{"null value", `{"year_metrics":{"2022":null},"currency":"USD","comment":"x"}`, "year_metrics.2022"},
		{"duplicate year", `{"year_metrics":{"2022":1," 2022":2},"currency":"USD","comment":"x"}`, ""},
		{"not json", `<html>oops</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, jsonHandler(t, tt.body))
			_, err := c.FetchMetric(context.Background(), "nvidia", models.MetricRevenue)

			var merr *backend.MalformedResponseError
			require.True(t, errors.As(err, &merr), "got %v", err)
			if tt.field != "" {
				assert.Equal(t, tt.field, merr.Field)
			}
		})
	}
}

func TestFetchMetricValidatesKeys(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := c.FetchMetric(context.Background(), "tesla", models.MetricRevenue)
	var verr *backend.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "company", verr.Field)

	_, err = c.FetchMetric(context.Background(), "nvidia", "ebitda")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "metric", verr.Field)

	assert.Zero(t, calls.Load())
}

func TestFetchAll(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req financialDataRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Metric == string(models.MetricROE) {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"year_metrics":{"2023":2},"currency":"USD","comment":"` + req.Metric + `"}`))
	})

	keys := []models.MetricKey{models.MetricRevenue, models.MetricROE, models.MetricEPS, models.MetricRevenue}
	results := c.FetchAll(context.Background(), "apple", keys)

	require.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())

	require.NoError(t, results[models.MetricRevenue].Err)
	assert.Equal(t, "revenue", results[models.MetricRevenue].Series.Commentary)
	require.NoError(t, results[models.MetricEPS].Err)

	var serr *backend.StatusError
	assert.True(t, errors.As(results[models.MetricROE].Err, &serr))
	assert.Nil(t, results[models.MetricROE].Series)
}
