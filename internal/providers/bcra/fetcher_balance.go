package bcra

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andesdata/dataseb/internal/infra"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

// balanceDatasets maps dataset names to their index in the configured
// balance export URLs: the daily balance sheet, reserve accounts, assets
// and liabilities.
var balanceDatasets = map[string]int{
	"din1":        0,
	"din2":        1,
	"din3":        2,
	"din4":        3,
	"balance":     0,
	"reserves":    1,
	"assets":      2,
	"liabilities": 3,
}

// fetchBalanceLines downloads and parses one balance export. Each line is
// "category;dd/mm/yyyy;amount". Amounts are published in thousands; divide
// scales them to millions.
func (p *Provider) fetchBalanceLines(ctx context.Context, url string, divide bool) ([]models.BalanceSheetEntry, error) {
	raw, err := infra.GetBytes(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var entries []models.BalanceSheetEntry
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		parts := strings.Split(strings.TrimSpace(scanner.Text()), ";")
		if len(parts) != 3 {
			continue
		}
		date, err := time.Parse("02/01/2006", strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		value := parseAmount(parts[2])
		if math.IsNaN(value) {
			continue
		}
		if divide {
			value /= 1000
		}
		entries = append(entries, models.BalanceSheetEntry{
			Date:    date,
			Concept: strings.TrimSpace(parts[0]),
			Value:   value,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", url, err)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

// ---------------------------------------------------------------------------
// BalanceSheetSeries: full balance export selected by dataset
// ---------------------------------------------------------------------------

type balanceSheetFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newBalanceSheetFetcher(p *Provider) *balanceSheetFetcher {
	return &balanceSheetFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelBalanceSheetSeries,
			"Central bank balance sheet exports by dataset",
			nil,
			[]string{provider.ParamDataset, provider.ParamDivide},
		),
		p: p,
	}
}

func (f *balanceSheetFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	dataset := strings.ToLower(strings.TrimSpace(params[provider.ParamDataset]))
	if dataset == "" {
		dataset = "din1"
	}
	idx, ok := balanceDatasets[dataset]
	if !ok || idx >= len(f.p.cfg.BalanceURLs) {
		return nil, &provider.ErrInvalidParam{Param: provider.ParamDataset, Value: dataset}
	}

	cacheKey := provider.CacheKey(provider.ModelBalanceSheetSeries, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	divide := params[provider.ParamDivide] != "false"
	entries, err := f.p.fetchBalanceLines(ctx, f.p.cfg.BalanceURLs[idx], divide)
	if err != nil {
		return nil, fmt.Errorf("balance sheet %s: %w", dataset, err)
	}

	result := newResult(entries)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// GovernmentDeposits: peso deposits of the government at the central bank
// ---------------------------------------------------------------------------

// govDepositsCategory is the reserve accounts line holding government
// deposits in pesos.
const govDepositsCategory = "8842"

type govDepositsFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newGovDepositsFetcher(p *Provider) *govDepositsFetcher {
	return &govDepositsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelGovernmentDeposits,
			"Daily government peso deposits at the central bank",
			nil,
			[]string{provider.ParamDivide},
		),
		p: p,
	}
}

func (f *govDepositsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	if len(f.p.cfg.BalanceURLs) < 2 {
		return nil, fmt.Errorf("government deposits: reserve accounts export not configured")
	}
	cacheKey := provider.CacheKey(provider.ModelGovernmentDeposits, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	divide := params[provider.ParamDivide] != "false"
	entries, err := f.p.fetchBalanceLines(ctx, f.p.cfg.BalanceURLs[1], divide)
	if err != nil {
		return nil, fmt.Errorf("government deposits: %w", err)
	}

	var out []models.BalanceSheetEntry
	for _, e := range entries {
		if e.Concept != govDepositsCategory {
			continue
		}
		e.Concept = "Depositos_gob"
		out = append(out, e)
	}

	result := newResult(out)
	f.CacheSet(cacheKey, result)
	return result, nil
}
