package bcra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andesdata/dataseb/internal/infra"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

// ---------------------------------------------------------------------------
// MonetaryVariables: catalog of API series with their latest observation
// ---------------------------------------------------------------------------

type variablesFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newVariablesFetcher(p *Provider) *variablesFetcher {
	return &variablesFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelMonetaryVariables,
			"Catalog of central bank API series with latest values",
			nil, nil,
		),
		p: p,
	}
}

func (f *variablesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelMonetaryVariables, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	raw, err := infra.GetBytes(ctx, f.p.cfg.APIBaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("monetary variables: %w", err)
	}
	var resp struct {
		Results []struct {
			VariableID  int     `json:"idVariable"`
			Description string  `json:"descripcion"`
			Date        string  `json:"fecha"`
			Value       float64 `json:"valor"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("monetary variables: %w", err)
	}

	vars := make([]models.MonetaryVariable, 0, len(resp.Results))
	for _, r := range resp.Results {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		vars = append(vars, models.MonetaryVariable{
			Date:       date,
			VariableID: r.VariableID,
			Name:       r.Description,
			Value:      r.Value,
		})
	}

	result := newResult(vars)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// MonetaryBase: daily monetary base components
// ---------------------------------------------------------------------------

// monetaryBaseSheet describes the monetary base block of the statistical
// workbook. Daily rows are flagged "D" in the frequency column.
const (
	monetaryBaseSheet   = "BASE MONETARIA"
	monetaryBaseFreqCol = 32
)

type monetaryBaseFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newMonetaryBaseFetcher(p *Provider) *monetaryBaseFetcher {
	return &monetaryBaseFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelMonetaryBase,
			"Daily monetary base components with derived total money",
			nil,
			[]string{provider.ParamDataset, provider.ParamQuasiMoney},
		),
		p: p,
	}
}

func (f *monetaryBaseFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	src, err := f.p.source(params)
	if err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelMonetaryBase, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	quasi := params[provider.ParamQuasiMoney] == "true"
	fromFile := src == f.p.file

	var reqs []SeriesRequest
	if fromFile {
		reqs = []SeriesRequest{
			{Name: "DPP", Sheet: monetaryBaseSheet, ValueCol: 25, FreqCol: monetaryBaseFreqCol},
			{Name: "DPB", Sheet: monetaryBaseSheet, ValueCol: 26, FreqCol: monetaryBaseFreqCol},
			{Name: "CC", Sheet: monetaryBaseSheet, ValueCol: 27, FreqCol: monetaryBaseFreqCol},
			{Name: "CCBCRA", Sheet: monetaryBaseSheet, ValueCol: 28, FreqCol: monetaryBaseFreqCol},
			{Name: "BMT", Sheet: monetaryBaseSheet, ValueCol: 29, FreqCol: monetaryBaseFreqCol},
		}
		if quasi {
			reqs = append(reqs,
				SeriesRequest{Name: "QM", Sheet: monetaryBaseSheet, ValueCol: 30, FreqCol: monetaryBaseFreqCol},
				SeriesRequest{Name: "BMTQ", Sheet: monetaryBaseSheet, ValueCol: 31, FreqCol: monetaryBaseFreqCol},
			)
		}
	} else {
		reqs = []SeriesRequest{
			{VariableID: 15, Name: "BMT"},
			{VariableID: 16, Name: "CM"},
			{VariableID: 17, Name: "DPP"},
			{VariableID: 18, Name: "DPB"},
			{VariableID: 19, Name: "CCBCRA"},
		}
		if quasi {
			reqs = append(reqs,
				SeriesRequest{VariableID: 69, Name: "CC"},
				SeriesRequest{VariableID: 72, Name: "QM"},
				SeriesRequest{VariableID: 73, Name: "BMTQ"},
			)
		}
	}

	set, err := seriesSet(ctx, src, reqs)
	if err != nil {
		return nil, fmt.Errorf("monetary base: %w", err)
	}

	vars := flattenSet(reqs, set)
	if fromFile {
		// The workbook has no circulating money column.
		vars = append(vars, derivedSum("CM", set, "DPP", "DPB", "CC")...)
	}
	// Total money held outside the central bank.
	vars = append(vars, derivedSum("DT", set, "DPP", "DPB")...)

	result := newResult(vars)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// TimeDeposits: fixed-term deposit stocks
// ---------------------------------------------------------------------------

const (
	depositsSheet   = "DEPOSITOS"
	depositsFreqCol = 29
)

type timeDepositsFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newTimeDepositsFetcher(p *Provider) *timeDepositsFetcher {
	return &timeDepositsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelTimeDeposits,
			"Daily fixed-term deposit stocks, total and private",
			nil,
			[]string{provider.ParamDataset},
		),
		p: p,
	}
}

func (f *timeDepositsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	src, err := f.p.source(params)
	if err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelTimeDeposits, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	var reqs []SeriesRequest
	if src == f.p.file {
		reqs = []SeriesRequest{
			{Name: "PF", Sheet: depositsSheet, ValueCol: 3, FreqCol: depositsFreqCol},
			{Name: "PF_UVA", Sheet: depositsSheet, ValueCol: 4, FreqCol: depositsFreqCol},
			{Name: "PF_Privado", Sheet: depositsSheet, ValueCol: 12, FreqCol: depositsFreqCol},
			{Name: "PF_UVA_Privado", Sheet: depositsSheet, ValueCol: 13, FreqCol: depositsFreqCol},
		}
	} else {
		reqs = []SeriesRequest{
			{VariableID: 87, Name: "PF"},
			{VariableID: 88, Name: "PF_UVA"},
			{VariableID: 96, Name: "PF_Privado"},
			{VariableID: 97, Name: "PF_UVA_Privado"},
		}
	}

	set, err := seriesSet(ctx, src, reqs)
	if err != nil {
		return nil, fmt.Errorf("time deposits: %w", err)
	}

	result := newResult(flattenSet(reqs, set))
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// CentralBankInstruments: repos and sterilization bills
// ---------------------------------------------------------------------------

type instrumentsFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newInstrumentsFetcher(p *Provider) *instrumentsFetcher {
	return &instrumentsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCentralBankInstruments,
			"Daily stocks of repos and sterilization instruments",
			nil, nil,
		),
		p: p,
	}
}

func (f *instrumentsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelCentralBankInstruments, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	reqs := []SeriesRequest{
		{VariableID: 42, Name: "Pases_Pasivos"},
		{VariableID: 154, Name: "Pases_Activos"},
		{VariableID: 153, Name: "Pases_Pasivos_FCI"},
		{VariableID: 156, Name: "LEBACs"},
		{VariableID: 155, Name: "LELIQs"},
		{VariableID: 158, Name: "LEBACsD_LEVID_BOPREAL"},
		{VariableID: 159, Name: "NOCOMs"},
	}
	set, err := seriesSet(ctx, f.p.api, reqs)
	if err != nil {
		return nil, fmt.Errorf("instruments: %w", err)
	}

	result := newResult(flattenSet(reqs, set))
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// LiquidityBills: fiscal liquidity bill stock and flow
// ---------------------------------------------------------------------------

type liquidityBillsFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newLiquidityBillsFetcher(p *Provider) *liquidityBillsFetcher {
	return &liquidityBillsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelLiquidityBills,
			"Daily fiscal liquidity bill stock and flow",
			nil,
			[]string{provider.ParamDataset},
		),
		p: p,
	}
}

func (f *liquidityBillsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	src, err := f.p.source(params)
	if err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelLiquidityBills, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	var vars []models.MonetaryVariable
	if src == f.p.file {
		vars, err = f.fetchOperations(ctx)
	} else {
		reqs := []SeriesRequest{
			{VariableID: 196, Name: "LEFI"},
			{VariableID: 58, Name: "LEFI_Flujo"},
		}
		var set map[string][]models.SeriesPoint
		set, err = seriesSet(ctx, src, reqs)
		if err == nil {
			vars = flattenSet(reqs, set)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("liquidity bills: %w", err)
	}

	result := newResult(vars)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// fetchOperations reads the open-market operations workbook. Three header
// rows precede the data; bill holdings are split into public and private
// sector columns.
func (f *liquidityBillsFetcher) fetchOperations(ctx context.Context) ([]models.MonetaryVariable, error) {
	raw, err := infra.GetBytes(ctx, f.p.cfg.OperationsURL, nil)
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
	if len(rows) <= 3 {
		return nil, fmt.Errorf("workbook too short")
	}

	var vars []models.MonetaryVariable
	for _, row := range rows[3:] {
		if len(row) < 5 {
			continue
		}
		date, ok := parseCellDate(row[0])
		if !ok {
			continue
		}
		public := parseAmount(row[3])
		private := parseAmount(row[4])
		if math.IsNaN(public) || math.IsNaN(private) {
			continue
		}
		vars = append(vars,
			models.MonetaryVariable{Date: date, Name: "Publico", Value: public},
			models.MonetaryVariable{Date: date, Name: "Privado", Value: private},
			models.MonetaryVariable{Date: date, Name: "LEFI", Value: public + private},
		)
	}
	sort.Slice(vars, func(i, j int) bool {
		if !vars[i].Date.Equal(vars[j].Date) {
			return vars[i].Date.Before(vars[j].Date)
		}
		return vars[i].Name < vars[j].Name
	})
	return vars, nil
}

// ---------------------------------------------------------------------------
// InternationalReserves and PrivateLoans: single API series
// ---------------------------------------------------------------------------

type singleSeriesFetcher struct {
	provider.BaseFetcher
	p   *Provider
	req SeriesRequest
}

func newReservesFetcher(p *Provider) *singleSeriesFetcher {
	return &singleSeriesFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelInternationalReserves,
			"Daily gross international reserves",
			nil, nil,
		),
		p:   p,
		req: SeriesRequest{VariableID: 1, Name: "RRII"},
	}
}

func newLoansFetcher(p *Provider) *singleSeriesFetcher {
	return &singleSeriesFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelPrivateLoans,
			"Daily loans to the private sector",
			nil, nil,
		),
		p:   p,
		req: SeriesRequest{VariableID: 117, Name: "Prestamos"},
	}
}

func (f *singleSeriesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	points, err := f.p.api.Series(ctx, f.req)
	if err != nil {
		return nil, err
	}
	vars := make([]models.MonetaryVariable, 0, len(points))
	for _, pt := range points {
		vars = append(vars, models.MonetaryVariable{
			Date:       pt.Date,
			VariableID: f.req.VariableID,
			Name:       f.req.Name,
			Value:      pt.Value,
		})
	}

	result := newResult(vars)
	f.CacheSet(cacheKey, result)
	return result, nil
}
