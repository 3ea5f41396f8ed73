package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	companies := c.Companies()
	assert.Len(t, companies, 3)
	assert.Equal(t, CompanyKey("nvidia"), companies[0].Key)

	m, ok := c.Metric(MetricEPS)
	assert.True(t, ok)
	assert.Equal(t, KindPerShare, m.Kind)

	_, ok = c.Company("tesla")
	assert.False(t, ok)
}

func TestCatalogLookup(t *testing.T) {
	c := DefaultCatalog()

	co, ok := c.LookupCompany("MINISO")
	assert.True(t, ok)
	assert.Equal(t, CompanyKey("miniso"), co.Key)

	co, ok = c.LookupCompany(" Apple ")
	assert.True(t, ok)
	assert.Equal(t, CompanyKey("apple"), co.Key)

	m, ok := c.LookupMetric("net income")
	assert.True(t, ok)
	assert.Equal(t, MetricNetIncome, m.Key)

	m, ok = c.LookupMetric("ROE")
	assert.True(t, ok)
	assert.Equal(t, MetricROE, m.Key)

	_, ok = c.LookupMetric("ebitda")
	assert.False(t, ok)
}

func TestNewCatalogNormalizes(t *testing.T) {
	c := NewCatalog([]Company{
		{Key: " Tesla ", Name: "Tesla"},
		{Key: "byd"},
		{Key: "  "},
	})

	companies := c.Companies()
	assert.Equal(t, []Company{
		{Key: "tesla", Name: "Tesla"},
		{Key: "byd", Name: "byd"},
	}, companies)
	assert.Len(t, c.Metrics(), 8)
}
