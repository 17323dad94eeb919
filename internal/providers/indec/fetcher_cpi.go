package indec

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

// Classification selects a CPI breakdown within the divisions file.
type Classification string

const (
	ClassificationDivision      Classification = "division"
	ClassificationCategory      Classification = "category"
	ClassificationGoodsServices Classification = "goods_services"
)

// classifierLabels maps classifications to the labels used in the CSV.
var classifierLabels = map[Classification]string{
	ClassificationDivision:      "Nivel general y divisiones COICOP",
	ClassificationCategory:      "Categorias",
	ClassificationGoodsServices: "Bienes y servicios",
}

// ParseClassification validates a classification query parameter.
// An empty value defaults to the COICOP divisions.
func ParseClassification(s string) (Classification, error) {
	switch Classification(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClassificationDivision:
		return ClassificationDivision, nil
	case ClassificationCategory:
		return ClassificationCategory, nil
	case ClassificationGoodsServices:
		return ClassificationGoodsServices, nil
	}
	return "", &provider.ErrInvalidParam{Param: provider.ParamClassification, Value: s}
}

// ---------------------------------------------------------------------------
// ConsumerPriceIndex: national headline series from serie_ipc_divisiones.csv
// ---------------------------------------------------------------------------

type cpiFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newCPIFetcher(p *Provider) *cpiFetcher {
	return &cpiFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelConsumerPriceIndex,
			"INDEC national CPI with month-over-month inflation",
			nil,
			[]string{provider.ParamStartDate, provider.ParamEndDate},
		),
		p: p,
	}
}

func (f *cpiFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelConsumerPriceIndex, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	obs, err := f.p.nationalCPI(ctx)
	if err != nil {
		return nil, err
	}
	obs = filterCPIByDate(obs, params)

	result := newResult(obs)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// nationalCPI fetches the headline national index and derives the
// month-over-month inflation rate. The first month has no prior period and
// keeps a NaN rate.
func (p *Provider) nationalCPI(ctx context.Context) ([]models.CPIObservation, error) {
	records, err := p.fetchCSV(ctx, p.cfg.CPIDivisionsURL)
	if err != nil {
		return nil, fmt.Errorf("cpi: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("cpi: empty file")
	}

	header := records[0]
	codeCol := findColumn(header, "Codigo")
	periodCol := findColumn(header, "Periodo")
	indexCol := findColumn(header, "Indice_IPC")
	regionCol := findColumn(header, "Region")
	if codeCol < 0 || periodCol < 0 || indexCol < 0 || regionCol < 0 {
		return nil, fmt.Errorf("cpi: unexpected header %v", header)
	}
	monthlyCol := findColumn(header, "v_m_IPC")
	yearlyCol := findColumn(header, "v_i_a_IPC")

	var obs []models.CPIObservation
	for _, rec := range records[1:] {
		if len(rec) <= indexCol || len(rec) <= regionCol {
			continue
		}
		if strings.TrimSpace(rec[codeCol]) != "0" || strings.TrimSpace(rec[regionCol]) != "Nacional" {
			continue
		}
		date, ok := parsePeriod(rec[periodCol])
		if !ok {
			continue
		}
		index := parseDecimal(rec[indexCol])
		if math.IsNaN(index) {
			continue
		}
		o := models.CPIObservation{
			Date:          date,
			Index:         index,
			MonthlyChange: math.NaN(),
			YearlyChange:  math.NaN(),
			Region:        "Nacional",
		}
		if monthlyCol >= 0 && len(rec) > monthlyCol {
			o.MonthlyChange = parseDecimal(rec[monthlyCol])
		}
		if yearlyCol >= 0 && len(rec) > yearlyCol {
			o.YearlyChange = parseDecimal(rec[yearlyCol])
		}
		obs = append(obs, o)
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	for i := range obs {
		if i == 0 {
			obs[i].Inflation = math.NaN()
			continue
		}
		obs[i].Inflation = obs[i].Index/obs[i-1].Index - 1
	}
	return obs, nil
}

// filterCPIByDate applies the optional start/end date window.
func filterCPIByDate(obs []models.CPIObservation, params provider.QueryParams) []models.CPIObservation {
	start, end := dateWindow(params)
	if start.IsZero() && end.IsZero() {
		return obs
	}
	out := obs[:0]
	for _, o := range obs {
		if !start.IsZero() && o.Date.Before(start) {
			continue
		}
		if !end.IsZero() && o.Date.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// dateWindow parses the optional start/end date params (YYYY-MM-DD).
func dateWindow(params provider.QueryParams) (time.Time, time.Time) {
	var start, end time.Time
	if s := params[provider.ParamStartDate]; s != "" {
		start, _ = time.Parse("2006-01-02", s)
	}
	if s := params[provider.ParamEndDate]; s != "" {
		end, _ = time.Parse("2006-01-02", s)
	}
	return start, end
}

// ---------------------------------------------------------------------------
// CPIByDivision: national breakdowns from serie_ipc_divisiones.csv
// ---------------------------------------------------------------------------

type divisionsFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newDivisionsFetcher(p *Provider) *divisionsFetcher {
	return &divisionsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCPIByDivision,
			"INDEC national CPI by COICOP division, category or goods/services",
			nil,
			[]string{provider.ParamClassification},
		),
		p: p,
	}
}

func (f *divisionsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	class, err := ParseClassification(params[provider.ParamClassification])
	if err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelCPIByDivision, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	records, err := f.p.fetchCSV(ctx, f.p.cfg.CPIDivisionsURL)
	if err != nil {
		return nil, fmt.Errorf("cpi divisions: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("cpi divisions: empty file")
	}

	header := records[0]
	codeCol := findColumn(header, "Codigo")
	descCol := findColumn(header, "Descripcion")
	periodCol := findColumn(header, "Periodo")
	indexCol := findColumn(header, "Indice_IPC")
	regionCol := findColumn(header, "Region")
	classCol := findColumn(header, "Clasificador")
	if codeCol < 0 || periodCol < 0 || indexCol < 0 || regionCol < 0 || classCol < 0 {
		return nil, fmt.Errorf("cpi divisions: unexpected header %v", header)
	}

	wantLabel := classifierLabels[class]
	var cats []models.CPICategory
	for _, rec := range records[1:] {
		if len(rec) <= classCol || len(rec) <= indexCol {
			continue
		}
		if strings.TrimSpace(rec[regionCol]) != "Nacional" ||
			strings.TrimSpace(rec[classCol]) != wantLabel {
			continue
		}
		date, ok := parsePeriod(rec[periodCol])
		if !ok {
			continue
		}
		code := strings.TrimSpace(rec[codeCol])
		cats = append(cats, models.CPICategory{
			Date:     date,
			Code:     code,
			Category: categoryLabel(class, code, rec, descCol),
			Region:   "Nacional",
			Index:    parseDecimal(rec[indexCol]),
		})
	}

	result := newResult(cats)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// categoryLabel resolves the display label for a breakdown row. Category
// rows carry their label in the code column, and goods/services rows use
// single-letter codes.
func categoryLabel(class Classification, code string, rec []string, descCol int) string {
	switch class {
	case ClassificationCategory:
		return code
	case ClassificationGoodsServices:
		switch code {
		case "B":
			return "Bienes"
		case "S":
			return "Servicios"
		}
		return "Other"
	}
	if descCol >= 0 && descCol < len(rec) {
		return strings.TrimSpace(rec[descCol])
	}
	return code
}

// ---------------------------------------------------------------------------
// CPIOpenings: regional openings from serie_ipc_aperturas.csv
// ---------------------------------------------------------------------------

type openingsFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newOpeningsFetcher(p *Provider) *openingsFetcher {
	return &openingsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCPIOpenings,
			"INDEC CPI openings by region",
			nil,
			[]string{provider.ParamRegion, provider.ParamPrepagas},
		),
		p: p,
	}
}

func (f *openingsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelCPIOpenings, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	records, err := f.p.fetchCSV(ctx, f.p.cfg.CPIOpeningsURL)
	if err != nil {
		return nil, fmt.Errorf("cpi openings: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("cpi openings: empty file")
	}

	header := records[0]
	codeCol := findColumn(header, "Codigo")
	descCol := findColumn(header, "Descripcion_aperturas")
	periodCol := findColumn(header, "Periodo")
	indexCol := findColumn(header, "Indice_IPC")
	regionCol := findColumn(header, "Region")
	if codeCol < 0 || descCol < 0 || periodCol < 0 || indexCol < 0 || regionCol < 0 {
		return nil, fmt.Errorf("cpi openings: unexpected header %v", header)
	}

	// The prepagas opening was recoded mid-series; fold it into its parent
	// group unless explicitly disabled.
	foldPrepagas := params[provider.ParamPrepagas] != "false"
	regionFilter := strings.TrimSpace(params[provider.ParamRegion])

	var cats []models.CPICategory
	for _, rec := range records[1:] {
		if len(rec) <= indexCol || len(rec) <= regionCol {
			continue
		}
		region := strings.TrimSpace(rec[regionCol])
		if regionFilter != "" && !strings.EqualFold(region, regionFilter) {
			continue
		}
		date, ok := parsePeriod(rec[periodCol])
		if !ok {
			continue
		}
		code := strings.TrimSpace(rec[codeCol])
		if foldPrepagas && code == "06.4.1" {
			code = "06.4"
		}
		cats = append(cats, models.CPICategory{
			Date:     date,
			Code:     code,
			Category: strings.TrimSpace(rec[descCol]),
			Region:   region,
			Index:    parseDecimal(rec[indexCol]),
		})
	}

	result := newResult(cats)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// CPIWeights: basket weights by region from the local ponderadores workbook
// ---------------------------------------------------------------------------

// weightRegions lists the region columns of the weights workbook, in order.
var weightRegions = []string{"GBA", "Pampeana", "Noreste", "Noroeste", "Cuyo", "Patagonia"}

type weightsFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newWeightsFetcher(p *Provider) *weightsFetcher {
	return &weightsFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelCPIWeights,
			"INDEC CPI basket weights by division and region",
			nil,
			[]string{provider.ParamRegion},
		),
		p: p,
	}
}

func (f *weightsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	wb, err := excelize.OpenFile(f.p.cfg.CPIWeightsPath)
	if err != nil {
		return nil, fmt.Errorf("cpi weights: %w", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("cpi weights: %w", err)
	}
	// Two title rows precede the header, and two footnote rows trail the data.
	if len(rows) < 6 {
		return nil, fmt.Errorf("cpi weights: workbook too short")
	}
	data := rows[3 : len(rows)-2]

	regionFilter := strings.TrimSpace(params[provider.ParamRegion])
	var weights []models.CPIWeight
	for _, row := range data {
		if len(row) < 2+len(weightRegions) {
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		for i, region := range weightRegions {
			if regionFilter != "" && !strings.EqualFold(region, regionFilter) {
				continue
			}
			w := parseDecimal(row[2+i])
			if math.IsNaN(w) {
				continue
			}
			weights = append(weights, models.CPIWeight{
				Division: code + " " + strings.TrimSpace(row[1]),
				Region:   region,
				Weight:   w,
			})
		}
	}

	return newResult(weights), nil
}
