package indec

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/internal/series"
	"github.com/andesdata/dataseb/pkg/models"
)

// The supply and demand workbook lays each series out horizontally: the
// quarterly values of one aggregate fill a single row, with an annual
// average inserted after every four quarters.
const (
	gdpNominalSheet = "cuadro 8"
	gdpRealSheet    = "cuadro 1"
	gdpSeriesRow    = 6 // GDP at market prices, after the header row
)

type gdpFetcher struct {
	provider.BaseFetcher
	p     *Provider
	model provider.ModelType
}

func newGDPFetcher(p *Provider, model provider.ModelType) *gdpFetcher {
	desc := "INDEC quarterly GDP at constant prices"
	var optional []string
	if model == provider.ModelGDPNominal {
		desc = "INDEC quarterly GDP at current prices"
		optional = []string{provider.ParamEstimate}
	}
	return &gdpFetcher{
		BaseFetcher: provider.NewBaseFetcher(model, desc, nil, optional),
		p:           p,
		model:       model,
	}
}

func (f *gdpFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(f.model, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	sheet := gdpRealSheet
	gdpType := "real"
	if f.model == provider.ModelGDPNominal {
		sheet = gdpNominalSheet
		gdpType = "nominal"
	}

	raw, err := f.p.fetchBytes(ctx, f.p.cfg.SupplyDemandURL)
	if err != nil && f.p.cfg.FTPIndexURL != "" {
		// The configured workbook goes stale every quarter. Fall back to
		// scanning the FTP index for the current one.
		url, derr := f.p.discoverSupplyDemandURL(ctx)
		if derr == nil {
			raw, err = f.p.fetchBytes(ctx, url)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("gdp: %w", err)
	}
	rows, err := readNamedSheetRows(raw, sheet)
	if err != nil {
		return nil, fmt.Errorf("gdp: %w", err)
	}
	if len(rows) <= gdpSeriesRow {
		return nil, fmt.Errorf("gdp: sheet %q too short", sheet)
	}

	obs := cleanGDPSeries(rows[gdpSeriesRow], gdpType)

	if f.model == provider.ModelGDPNominal && params[provider.ParamEstimate] == "true" {
		obs, err = f.extendWithCPI(ctx, obs)
		if err != nil {
			return nil, fmt.Errorf("gdp estimate: %w", err)
		}
	}

	result := newResult(obs)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// cleanGDPSeries turns the horizontal series row into dated quarterly
// observations, dropping the row label and the annual averages that follow
// every fourth quarter.
func cleanGDPSeries(row []string, gdpType string) []models.GDPObservation {
	var values []float64
	for _, cell := range row[1:] {
		v := parseDecimal(cell)
		if math.IsNaN(v) {
			continue
		}
		values = append(values, v)
	}

	var obs []models.GDPObservation
	quarter := 0
	for i, v := range values {
		// Every fifth value is the annual average.
		if (i+1)%5 == 0 {
			continue
		}
		obs = append(obs, models.GDPObservation{
			Date:     nthQuarterEnd(quarter),
			Value:    v,
			Type:     gdpType,
			Currency: "ARS",
		})
		quarter++
	}
	return obs
}

// nthQuarterEnd returns the quarter-end date n quarters after 2004 Q1.
func nthQuarterEnd(n int) time.Time {
	return time.Date(2004, time.Month(3*(n+1))+1, 0, 0, 0, 0, 0, time.UTC)
}

// extendWithCPI extrapolates nominal GDP beyond the published series by
// scaling the last quarter with the national CPI ratio, one quarter at a
// time up to the latest CPI observation.
func (f *gdpFetcher) extendWithCPI(ctx context.Context, obs []models.GDPObservation) ([]models.GDPObservation, error) {
	if len(obs) == 0 {
		return obs, nil
	}
	cpi, err := f.p.nationalCPI(ctx)
	if err != nil {
		return nil, err
	}
	byDate := make(map[time.Time]float64, len(cpi))
	for _, c := range cpi {
		byDate[c.Date] = c.Index
	}
	lastCPIDate := cpi[len(cpi)-1].Date

	current := obs[len(obs)-1].Date
	value := obs[len(obs)-1].Value
	for current.Before(lastCPIDate) {
		next := series.NextQuarterEnd(current)
		if !next.Before(lastCPIDate) {
			next = lastCPIDate
		}
		curIdx, ok1 := byDate[current]
		nextIdx, ok2 := byDate[next]
		if !ok1 || !ok2 {
			break
		}
		value = value * nextIdx / curIdx
		obs = append(obs, models.GDPObservation{
			Date:     next,
			Value:    value,
			Type:     "nominal",
			Currency: "ARS",
			Estimate: true,
		})
		current = next
	}
	return obs, nil
}
