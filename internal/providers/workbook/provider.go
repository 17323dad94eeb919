// Package workbook implements a data provider for locally maintained
// spreadsheets: the spliced Argentine CPI series reaching back past the
// published index, and the long-run US CPI series. Both are monthly
// workbooks with a date column and an index column.
package workbook

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andesdata/dataseb/internal/config"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

const providerName = "workbook"

// Provider serves locally maintained spreadsheet series.
type Provider struct {
	provider.BaseProvider
	cfg config.WorkbookConfig
}

// New creates a new workbook provider and registers all fetchers.
func New(cfg config.WorkbookConfig) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Local spreadsheets - spliced Argentine CPI and long-run US CPI",
			"",
		),
		cfg: cfg,
	}

	p.RegisterFetcher(newIndexFetcher(p, provider.ModelSplicedCPI,
		"Monthly spliced Argentine CPI with derived inflation",
		cfg.SplicedCPIPath, "IPC"))
	p.RegisterFetcher(newIndexFetcher(p, provider.ModelUSConsumerPriceIndex,
		"Monthly US CPI with derived inflation",
		cfg.USCPIPath, "CPI"))

	return p
}

// Ping verifies that the configured workbooks exist.
func (p *Provider) Ping(ctx context.Context) error {
	for _, path := range []string{p.cfg.SplicedCPIPath, p.cfg.USCPIPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("workbook ping: %w", err)
		}
	}
	return nil
}

// indexFetcher reads one date-and-index workbook and derives the
// month-over-month inflation rate.
type indexFetcher struct {
	provider.BaseFetcher
	p        *Provider
	path     string
	indexCol string
}

func newIndexFetcher(p *Provider, model provider.ModelType, desc, path, indexCol string) *indexFetcher {
	return &indexFetcher{
		BaseFetcher: provider.NewBaseFetcher(model, desc, nil,
			[]string{provider.ParamStartDate, provider.ParamEndDate}),
		p:        p,
		path:     path,
		indexCol: indexCol,
	}
}

func (f *indexFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	cacheKey := provider.CacheKey(f.ModelType(), params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	obs, err := f.read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.ModelType(), err)
	}
	obs = filterByDate(obs, params)

	result := &provider.FetchResult{Data: obs, FetchedAt: time.Now()}
	f.CacheSet(cacheKey, result)
	return result, nil
}

func (f *indexFetcher) read() ([]models.CPIObservation, error) {
	wb, err := excelize.OpenFile(f.path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook %s is empty", f.path)
	}

	dateCol := findColumn(rows[0], "Fecha")
	indexCol := findColumn(rows[0], f.indexCol)
	if dateCol < 0 || indexCol < 0 {
		return nil, fmt.Errorf("workbook %s: unexpected header %v", f.path, rows[0])
	}

	var obs []models.CPIObservation
	for _, row := range rows[1:] {
		if len(row) <= dateCol || len(row) <= indexCol {
			continue
		}
		date, ok := parseDate(row[dateCol])
		if !ok {
			continue
		}
		value := parseNumber(row[indexCol])
		if math.IsNaN(value) {
			continue
		}
		obs = append(obs, models.CPIObservation{
			Date:          date,
			Index:         value,
			MonthlyChange: math.NaN(),
			YearlyChange:  math.NaN(),
		})
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

func filterByDate(obs []models.CPIObservation, params provider.QueryParams) []models.CPIObservation {
	var start, end time.Time
	if s := params[provider.ParamStartDate]; s != "" {
		start, _ = time.Parse("2006-01-02", s)
	}
	if s := params[provider.ParamEndDate]; s != "" {
		end, _ = time.Parse("2006-01-02", s)
	}
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

func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02/01/2006", "01-02-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumber(s string) float64 {
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
