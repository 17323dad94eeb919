// Package bcra implements a data provider for the Argentine central bank.
// Daily monetary series come from the monetary statistics API, with the
// published statistical workbook as an alternate source, balance sheet
// lines from semicolon-delimited text exports, and the official exchange
// rate from either the API or the communication A3500 workbook.
package bcra

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/andesdata/dataseb/internal/config"
	"github.com/andesdata/dataseb/internal/infra"
	"github.com/andesdata/dataseb/internal/provider"
)

const providerName = "bcra"

// Provider is the central bank data provider.
type Provider struct {
	provider.BaseProvider
	cfg config.BCRAConfig

	api  Source
	file Source
}

// New creates a new BCRA provider and registers all fetchers.
func New(cfg config.BCRAConfig) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"BCRA - Argentine central bank (monetary series, rates, balance sheet)",
			"https://www.bcra.gob.ar",
		),
		cfg:  cfg,
		api:  newAPISource(cfg.APIBaseURL, cfg.PageLimit),
		file: newFileSource(cfg.SeriesURL),
	}

	p.RegisterFetcher(newVariablesFetcher(p))
	p.RegisterFetcher(newMonetaryBaseFetcher(p))
	p.RegisterFetcher(newTimeDepositsFetcher(p))
	p.RegisterFetcher(newInstrumentsFetcher(p))
	p.RegisterFetcher(newLiquidityBillsFetcher(p))
	p.RegisterFetcher(newReservesFetcher(p))
	p.RegisterFetcher(newLoansFetcher(p))
	p.RegisterFetcher(newGovDepositsFetcher(p))
	p.RegisterFetcher(newBalanceSheetFetcher(p))
	p.RegisterFetcher(newExchangeRateFetcher(p))
	p.RegisterFetcher(newCERFetcher(p))
	p.RegisterFetcher(newMarketRatesFetcher(p))

	return p
}

// Ping verifies connectivity to the monetary statistics API.
func (p *Provider) Ping(ctx context.Context) error {
	body, status, err := infra.DoGet(ctx, p.cfg.APIBaseURL, nil)
	if err != nil {
		return fmt.Errorf("bcra ping: %w", err)
	}
	body.Close()
	if status >= 400 {
		return fmt.Errorf("bcra ping: HTTP %d", status)
	}
	return nil
}

// source resolves the requested data source. The API is the default;
// dataset=file switches to the statistical workbook.
func (p *Provider) source(params provider.QueryParams) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(params[provider.ParamDataset])) {
	case "", "api":
		return p.api, nil
	case "file":
		return p.file, nil
	}
	return nil, &provider.ErrInvalidParam{
		Param: provider.ParamDataset,
		Value: params[provider.ParamDataset],
	}
}

// parseAmount parses a numeric cell. Blank or non-numeric cells yield NaN.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// newResult wraps data in a FetchResult.
func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
	}
}
