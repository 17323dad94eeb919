// Package bluelytics implements a data provider for the bluelytics API,
// which tracks the parallel ("blue") and official retail dollar quotes.
package bluelytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andesdata/dataseb/internal/config"
	"github.com/andesdata/dataseb/internal/infra"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

const providerName = "bluelytics"

// Provider is the bluelytics data provider.
type Provider struct {
	provider.BaseProvider
	cfg config.BluelyticConfig
}

// New creates a new bluelytics provider and registers all fetchers.
func New(cfg config.BluelyticConfig) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"bluelytics - parallel and official retail dollar quotes",
			"https://bluelytics.com.ar",
		),
		cfg: cfg,
	}
	p.RegisterFetcher(newEvolutionFetcher(p))
	return p
}

// Ping verifies connectivity to the evolution endpoint.
func (p *Provider) Ping(ctx context.Context) error {
	body, status, err := infra.DoGet(ctx, p.cfg.EvolutionURL, nil)
	if err != nil {
		return fmt.Errorf("bluelytics ping: %w", err)
	}
	body.Close()
	if status >= 400 {
		return fmt.Errorf("bluelytics ping: HTTP %d", status)
	}
	return nil
}

// evolutionEntry is one element of the evolution endpoint payload.
type evolutionEntry struct {
	Date      string  `json:"date"`
	Source    string  `json:"source"`
	ValueSell float64 `json:"value_sell"`
	ValueBuy  float64 `json:"value_buy"`
}

// rateSources maps the rate_type parameter to the payload source label.
var rateSources = map[string]string{
	"blue":     "Blue",
	"official": "Oficial",
}

type evolutionFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newEvolutionFetcher(p *Provider) *evolutionFetcher {
	return &evolutionFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelBlueExchangeRate,
			"Historical parallel and official retail dollar quotes",
			nil,
			[]string{provider.ParamRateType},
		),
		p: p,
	}
}

func (f *evolutionFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	rateType := strings.ToLower(strings.TrimSpace(params[provider.ParamRateType]))
	if rateType == "" {
		rateType = "blue"
	}
	sourceLabel, ok := rateSources[rateType]
	if !ok {
		return nil, &provider.ErrInvalidParam{Param: provider.ParamRateType, Value: rateType}
	}

	cacheKey := provider.CacheKey(provider.ModelBlueExchangeRate, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	raw, err := infra.GetBytes(ctx, f.p.cfg.EvolutionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("evolution: %w", err)
	}
	var entries []evolutionEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("evolution: %w", err)
	}

	var rates []models.ExchangeRate
	for _, e := range entries {
		if e.Source != sourceLabel {
			continue
		}
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		rates = append(rates, models.ExchangeRate{
			Date:   date,
			Buy:    e.ValueBuy,
			Sell:   e.ValueSell,
			Type:   rateType,
			Source: providerName,
		})
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Date.Before(rates[j].Date) })

	result := &provider.FetchResult{Data: rates, FetchedAt: time.Now()}
	f.CacheSet(cacheKey, result)
	return result, nil
}
