package bcra

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andesdata/dataseb/internal/infra"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

// ---------------------------------------------------------------------------
// OfficialExchangeRate: wholesale reference rate (communication A3500)
// ---------------------------------------------------------------------------

type exchangeRateFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newExchangeRateFetcher(p *Provider) *exchangeRateFetcher {
	return &exchangeRateFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelOfficialExchangeRate,
			"Daily wholesale reference exchange rate",
			nil,
			[]string{provider.ParamDataset, provider.ParamFrequency},
		),
		p: p,
	}
}

func (f *exchangeRateFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelOfficialExchangeRate, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	var points []models.SeriesPoint
	var err error
	switch strings.ToLower(strings.TrimSpace(params[provider.ParamDataset])) {
	case "", "api":
		points, err = f.p.api.Series(ctx, SeriesRequest{VariableID: 5, Name: "TC_A3500"})
	case "file":
		points, err = f.fetchWorkbook(ctx)
	default:
		return nil, &provider.ErrInvalidParam{
			Param: provider.ParamDataset,
			Value: params[provider.ParamDataset],
		}
	}
	if err != nil {
		return nil, fmt.Errorf("official exchange rate: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(params[provider.ParamFrequency])) {
	case "", "daily":
	case "monthly":
		points = monthlyMean(points)
	default:
		return nil, &provider.ErrInvalidParam{
			Param: provider.ParamFrequency,
			Value: params[provider.ParamFrequency],
		}
	}

	rates := make([]models.ExchangeRate, 0, len(points))
	for _, pt := range points {
		rates = append(rates, models.ExchangeRate{
			Date:   pt.Date,
			Sell:   pt.Value,
			Type:   "official",
			Source: providerName,
		})
	}

	result := newResult(rates)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// fetchWorkbook reads the published A3500 workbook. Three preamble rows
// precede the header; data rows carry the date and the reference rate.
func (f *exchangeRateFetcher) fetchWorkbook(ctx context.Context) ([]models.SeriesPoint, error) {
	raw, err := infra.GetBytes(ctx, f.p.cfg.ExchangeRateURL, nil)
	if err != nil {
		return nil, err
	}
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	if len(rows) <= 4 {
		return nil, fmt.Errorf("workbook too short")
	}

	var points []models.SeriesPoint
	for _, row := range rows[4:] {
		if len(row) < 2 {
			continue
		}
		date, ok := parseCellDate(row[0])
		if !ok {
			continue
		}
		value := firstNumeric(row[1:])
		if math.IsNaN(value) {
			continue
		}
		points = append(points, models.SeriesPoint{Date: date, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func firstNumeric(cells []string) float64 {
	for _, c := range cells {
		if v := parseAmount(c); !math.IsNaN(v) {
			return v
		}
	}
	return math.NaN()
}

// monthlyMean resamples a daily series to monthly averages, dated at the
// first day of each month.
func monthlyMean(points []models.SeriesPoint) []models.SeriesPoint {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, p := range points {
		if math.IsNaN(p.Value) {
			continue
		}
		month := time.Date(p.Date.Year(), p.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		sums[month] += p.Value
		counts[month]++
	}

	out := make([]models.SeriesPoint, 0, len(sums))
	for month, n := range counts {
		out = append(out, models.SeriesPoint{Date: month, Value: sums[month] / float64(n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ---------------------------------------------------------------------------
// CERIndex: reference stabilization coefficient
// ---------------------------------------------------------------------------

type cerFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newCERFetcher(p *Provider) *cerFetcher {
	return &cerFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCERIndex,
			"Daily reference stabilization coefficient (CER)",
			nil, nil,
		),
		p: p,
	}
}

func (f *cerFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelCERIndex, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	points, err := f.p.api.Series(ctx, SeriesRequest{VariableID: 30, Name: "CER"})
	if err != nil {
		return nil, fmt.Errorf("cer: %w", err)
	}
	obs := make([]models.IndexObservation, 0, len(points))
	for _, pt := range points {
		obs = append(obs, models.IndexObservation{Date: pt.Date, Value: pt.Value, Name: "CER"})
	}

	result := newResult(obs)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// MarketRates: 30-44 day fixed-term deposit rates
// ---------------------------------------------------------------------------

// Rate series by currency. The general panel, deposits over one million,
// and the same panel restricted to one-million-plus operations.
var (
	pesoRateReqs = []SeriesRequest{
		{VariableID: 128, Name: "TNA_GenP"},
		{VariableID: 129, Name: "TNA_100KP"},
		{VariableID: 131, Name: "TNA_1MP"},
	}
	dollarRateReqs = []SeriesRequest{
		{VariableID: 132, Name: "TNA_GenD"},
		{VariableID: 133, Name: "TNA_100KD"},
		{VariableID: 134, Name: "TNA_1MD"},
	}
)

type marketRatesFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newMarketRatesFetcher(p *Provider) *marketRatesFetcher {
	return &marketRatesFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelMarketRates,
			"Daily deposit rates with effective monthly and annual equivalents",
			nil,
			[]string{provider.ParamCurrency},
		),
		p: p,
	}
}

func (f *marketRatesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	var currencies []string
	switch strings.ToLower(strings.TrimSpace(params[provider.ParamCurrency])) {
	case "", "ars", "pesos":
		currencies = []string{"ARS"}
	case "usd", "dollars":
		currencies = []string{"USD"}
	case "both":
		currencies = []string{"ARS", "USD"}
	default:
		return nil, &provider.ErrInvalidParam{
			Param: provider.ParamCurrency,
			Value: params[provider.ParamCurrency],
		}
	}

	cacheKey := provider.CacheKey(provider.ModelMarketRates, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	var rates []models.InterestRate
	for _, currency := range currencies {
		reqs := pesoRateReqs
		if currency == "USD" {
			reqs = dollarRateReqs
		}
		set, err := seriesSet(ctx, f.p.api, reqs)
		if err != nil {
			return nil, fmt.Errorf("market rates: %w", err)
		}
		for _, req := range reqs {
			for _, pt := range set[req.Name] {
				value := pt.Value
				// The dollar one-million panel has gaps published as
				// missing; they count as zero.
				if math.IsNaN(value) && currency == "USD" {
					value = 0
				}
				tna := value / 100
				tem := tna / 12
				rates = append(rates, models.InterestRate{
					Date:     pt.Date,
					Name:     req.Name,
					Currency: currency,
					TNA:      tna,
					TEM:      tem,
					TEA:      math.Pow(1+tem, 12) - 1,
				})
			}
		}
	}

	result := newResult(rates)
	f.CacheSet(cacheKey, result)
	return result, nil
}
