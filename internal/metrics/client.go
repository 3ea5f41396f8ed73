// Package metrics fetches yearly financial metrics from the backend and
// derives the chart and year-over-year figures the dashboard shows.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dyike/CortexDash/internal/backend"
	"github.com/dyike/CortexDash/models"
)

type Client struct {
	transport backend.Transport
	catalog   *models.Catalog
	path      string
	log       logrus.FieldLogger
}

type Option func(*Client)

func WithPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.path = path
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(transport backend.Transport, catalog *models.Catalog, opts ...Option) *Client {
	if catalog == nil {
		catalog = models.DefaultCatalog()
	}
	c := &Client{
		transport: transport,
		catalog:   catalog,
		path:      "/get-financial-data",
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "metrics")
	return c
}

type financialDataRequest struct {
	Company string `json:"company"`
	Metric  string `json:"metric"`
}

type financialDataResponse struct {
	YearMetrics map[string]*decimal.Decimal `json:"year_metrics"`
	Currency    *string                     `json:"currency"`
	Comment     *string                     `json:"comment"`
	Commentary  *string                     `json:"commentary"`
}

// FetchMetric requests one metric's yearly history. An empty year_metrics
// object is a valid result with no data points.
func (c *Client) FetchMetric(ctx context.Context, company models.CompanyKey, metric models.MetricKey) (*models.MetricSeries, error) {
	if _, ok := c.catalog.Company(company); !ok {
		return nil, &backend.ValidationError{Field: "company", Reason: fmt.Sprintf("unknown company %q", company)}
	}
	if _, ok := c.catalog.Metric(metric); !ok {
		return nil, &backend.ValidationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", metric)}
	}

	log := c.log.WithFields(logrus.Fields{"company": company, "metric": metric})
	op := http.MethodPost + " " + c.path

	resp, err := c.transport.PostJSON(ctx, c.path, financialDataRequest{
		Company: string(company),
		Metric:  string(metric),
	})
	if err != nil {
		return nil, err
	}

	var out financialDataResponse
	if err := backend.Decode(log, op, resp, &out); err != nil {
		return nil, err
	}

	series, merr := parseSeries(op, &out)
	if merr != nil {
		return nil, backend.Malformed(log, merr)
	}
	series.Company = company
	series.Metric = metric

	log.WithField("years", len(series.YearValues)).Debug("metric fetched")
	return series, nil
}

func parseSeries(op string, out *financialDataResponse) (*models.MetricSeries, *backend.MalformedResponseError) {
	if out.YearMetrics == nil {
		return nil, backend.Missing(op, "year_metrics")
	}
	if out.Currency == nil {
		return nil, backend.Missing(op, "currency")
	}
	commentary := out.Comment
	if commentary == nil {
		commentary = out.Commentary
	}
	if commentary == nil {
		return nil, backend.Missing(op, "comment")
	}

	values := make(map[int]decimal.Decimal, len(out.YearMetrics))
	for raw, v := range out.YearMetrics {
		field := "year_metrics." + raw
		year, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, &backend.MalformedResponseError{Op: op, Field: field, Err: fmt.Errorf("year key is not an integer")}
		}
		if v == nil {
			return nil, &backend.MalformedResponseError{Op: op, Field: field, Err: fmt.Errorf("value is null")}
		}
		if _, dup := values[year]; dup {
			return nil, &backend.MalformedResponseError{Op: op, Field: field, Err: fmt.Errorf("duplicate year %d", year)}
		}
		values[year] = *v
	}

	return &models.MetricSeries{
		Currency:   strings.TrimSpace(*out.Currency),
		YearValues: values,
		Commentary: *commentary,
	}, nil
}

// Result is one metric's outcome from FetchAll.
type Result struct {
	Series *models.MetricSeries
	Err    error
}

// FetchAll fetches several metrics for company concurrently. The calls are
// independent; each metric's error is reported in its own Result.
func (c *Client) FetchAll(ctx context.Context, company models.CompanyKey, metrics []models.MetricKey) map[models.MetricKey]Result {
	unique := make([]models.MetricKey, 0, len(metrics))
	seen := make(map[models.MetricKey]struct{}, len(metrics))
	for _, m := range metrics {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		unique = append(unique, m)
	}

	out := make([]Result, len(unique))
	var wg sync.WaitGroup
	for i, m := range unique {
		wg.Add(1)
		go func(i int, m models.MetricKey) {
			defer wg.Done()
			series, err := c.FetchMetric(ctx, company, m)
			out[i] = Result{Series: series, Err: err}
		}(i, m)
	}
	wg.Wait()

	results := make(map[models.MetricKey]Result, len(unique))
	for i, m := range unique {
		results[m] = out[i]
	}
	return results
}
