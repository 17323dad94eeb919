package indec

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

// emaeSectors lists the activity workbook sector columns, in order.
var emaeSectors = []string{
	"Agricultura, ganadería, caza y silvicultura",
	"Pesca",
	"Explotación de minas y canteras",
	"Industria manufacturera",
	"Electricidad, gas y agua",
	"Construcción",
	"Comercio mayorista, minorista y reparaciones",
	"Hoteles y restaurantes",
	"Transporte y comunicaciones",
	"Intermediación financiera",
	"Actividades inmobiliarias, empresariales y de alquiler",
	"Administración pública y defensa; planes de seguridad social de afiliación obligatoria",
	"Enseñanza",
	"Servicios sociales y de salud",
	"Otras actividades de servicios comunitarios, sociales y personales",
	"Impuestos netos de subsidios",
}

// nthMonthEnd returns the month-end date n months after January 2004, the
// first period of the activity series (base 2004).
func nthMonthEnd(n int) time.Time {
	// Day zero of the following month normalizes to the month's last day.
	return time.Date(2004, time.January+time.Month(n)+1, 0, 0, 0, 0, 0, time.UTC)
}

// ---------------------------------------------------------------------------
// EconomicActivity: the monthly EMAE workbook
// ---------------------------------------------------------------------------

type activityFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newActivityFetcher(p *Provider) *activityFetcher {
	return &activityFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelEconomicActivity,
			"INDEC monthly economic activity estimator (EMAE)",
			nil,
			nil,
		),
		p: p,
	}
}

func (f *activityFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelEconomicActivity, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	raw, err := f.p.fetchBytes(ctx, f.p.cfg.EMAEMonthlyURL)
	if err != nil {
		return nil, fmt.Errorf("emae: %w", err)
	}
	rows, err := readSheetRows(raw)
	if err != nil {
		return nil, fmt.Errorf("emae: %w", err)
	}

	// Four header rows precede the data. The original, seasonally adjusted
	// and trend-cycle series sit in columns C, E and G.
	var obs []models.ActivityObservation
	n := 0
	for i := 4; i < len(rows); i++ {
		orig := cellDecimal(rows[i], 2)
		seas := cellDecimal(rows[i], 4)
		trend := cellDecimal(rows[i], 6)
		if math.IsNaN(orig) || math.IsNaN(seas) || math.IsNaN(trend) {
			continue
		}
		obs = append(obs, models.ActivityObservation{
			Date:             nthMonthEnd(n),
			Original:         orig,
			SeasonallyAdjust: seas,
			TrendCycle:       trend,
		})
		n++
	}

	result := newResult(obs)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// ActivityBySector: the per-sector EMAE workbook
// ---------------------------------------------------------------------------

type sectorFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newSectorFetcher(p *Provider) *sectorFetcher {
	return &sectorFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelActivityBySector,
			"INDEC economic activity estimator by sector",
			nil,
			nil,
		),
		p: p,
	}
}

func (f *sectorFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelActivityBySector, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	raw, err := f.p.fetchBytes(ctx, f.p.cfg.EMAESectorURL)
	if err != nil {
		return nil, fmt.Errorf("emae sectors: %w", err)
	}
	rows, err := readSheetRows(raw)
	if err != nil {
		return nil, fmt.Errorf("emae sectors: %w", err)
	}

	// Five header rows precede the data. Sector columns start at C.
	var out []models.SectorActivity
	n := 0
	for i := 5; i < len(rows); i++ {
		values := make([]float64, len(emaeSectors))
		complete := true
		for j := range emaeSectors {
			values[j] = cellDecimal(rows[i], 2+j)
			if math.IsNaN(values[j]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for j, sector := range emaeSectors {
			out = append(out, models.SectorActivity{
				Date:   nthMonthEnd(n),
				Sector: sector,
				Index:  values[j],
			})
		}
		n++
	}

	result := newResult(out)
	f.CacheSet(cacheKey, result)
	return result, nil
}

// ---------------------------------------------------------------------------
// Workbook helpers
// ---------------------------------------------------------------------------

// readSheetRows opens an in-memory workbook and returns the rows of its
// first sheet.
func readSheetRows(raw []byte) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return wb.GetRows(wb.GetSheetName(0))
}

// readNamedSheetRows returns the rows of a named sheet.
func readNamedSheetRows(raw []byte, sheet string) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return wb.GetRows(sheet)
}

// cellDecimal parses a cell at the given index, returning NaN when the row
// is too short or the cell is not numeric.
func cellDecimal(row []string, idx int) float64 {
	if idx >= len(row) {
		return math.NaN()
	}
	return parseDecimal(row[idx])
}
