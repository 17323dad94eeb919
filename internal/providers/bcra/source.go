package bcra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andesdata/dataseb/internal/infra"
	"github.com/andesdata/dataseb/pkg/models"
)

// SeriesRequest identifies one central bank series in whichever source
// serves it. The API locates series by variable id; the statistical
// workbook locates them by sheet and column.
type SeriesRequest struct {
	VariableID int
	Name       string

	// Workbook coordinates, zero-based. FreqCol marks the frequency
	// column: only daily rows (value "D") are kept.
	Sheet    string
	DateCol  int
	ValueCol int
	FreqCol  int
}

// Source retrieves a single central bank series.
type Source interface {
	Series(ctx context.Context, req SeriesRequest) ([]models.SeriesPoint, error)
}

// ---------------------------------------------------------------------------
// API source
// ---------------------------------------------------------------------------

// apiResponse is the envelope of the monetary statistics API.
type apiResponse struct {
	Results []apiObservation `json:"results"`
}

type apiObservation struct {
	VariableID int     `json:"idVariable"`
	Date       string  `json:"fecha"`
	Value      float64 `json:"valor"`
}

// apiSource reads series from the monetary statistics API. Responses are
// capped at pageLimit observations, so older data is pulled by walking
// date windows backwards until a window comes back empty.
type apiSource struct {
	baseURL   string
	pageLimit int
}

func newAPISource(baseURL string, pageLimit int) *apiSource {
	if pageLimit <= 0 {
		pageLimit = 3000
	}
	return &apiSource{baseURL: baseURL, pageLimit: pageLimit}
}

func (s *apiSource) Series(ctx context.Context, req SeriesRequest) ([]models.SeriesPoint, error) {
	url := fmt.Sprintf("%s/%d?limit=%d", s.baseURL, req.VariableID, s.pageLimit)
	page, err := s.page(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Name, err)
	}

	all := page
	for len(page) > 0 {
		hasta := oldestDate(page).AddDate(0, 0, -1)
		desde := hasta.AddDate(0, 0, -(s.pageLimit - 1))
		url = fmt.Sprintf("%s/%d?desde=%s&hasta=%s&limit=%d",
			s.baseURL, req.VariableID,
			desde.Format("2006-01-02"), hasta.Format("2006-01-02"), s.pageLimit)
		page, err = s.page(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", req.Name, err)
		}
		all = append(all, page...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })
	return all, nil
}

func (s *apiSource) page(ctx context.Context, url string) ([]models.SeriesPoint, error) {
	raw, err := infra.GetBytes(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}

	points := make([]models.SeriesPoint, 0, len(resp.Results))
	for _, obs := range resp.Results {
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		points = append(points, models.SeriesPoint{Date: date, Value: obs.Value})
	}
	return points, nil
}

func oldestDate(points []models.SeriesPoint) time.Time {
	oldest := points[0].Date
	for _, p := range points[1:] {
		if p.Date.Before(oldest) {
			oldest = p.Date
		}
	}
	return oldest
}

// ---------------------------------------------------------------------------
// Workbook source
// ---------------------------------------------------------------------------

// fileSource reads series from the published statistical workbook. The
// workbook is downloaded once and shared across series requests.
type fileSource struct {
	url string

	mu sync.Mutex
	wb *excelize.File
}

func newFileSource(url string) *fileSource {
	return &fileSource{url: url}
}

func (s *fileSource) workbook(ctx context.Context) (*excelize.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wb != nil {
		return s.wb, nil
	}
	raw, err := infra.GetBytes(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.url, err)
	}
	s.wb = wb
	return wb, nil
}

func (s *fileSource) Series(ctx context.Context, req SeriesRequest) ([]models.SeriesPoint, error) {
	wb, err := s.workbook(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Name, err)
	}
	rows, err := wb.GetRows(req.Sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: sheet %q: %w", req.Name, req.Sheet, err)
	}

	var points []models.SeriesPoint
	for _, row := range rows {
		if len(row) <= req.FreqCol || len(row) <= req.ValueCol {
			continue
		}
		if strings.TrimSpace(row[req.FreqCol]) != "D" {
			continue
		}
		date, ok := parseCellDate(row[req.DateCol])
		if !ok {
			continue
		}
		value := parseAmount(row[req.ValueCol])
		if math.IsNaN(value) {
			continue
		}
		points = append(points, models.SeriesPoint{
			Date:  date,
			Value: value,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// parseCellDate parses a workbook date cell. Published files carry
// day-first dates; formatted cells may also surface ISO dates.
func parseCellDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"02/01/2006", "2006-01-02", "02-01-2006", "02/01/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ---------------------------------------------------------------------------
// Concurrent set fetch
// ---------------------------------------------------------------------------

// seriesSet fetches several series concurrently from one source and
// returns them keyed by name. The fan-out is bounded by the configured
// fetch limit.
func seriesSet(ctx context.Context, src Source, reqs []SeriesRequest) (map[string][]models.SeriesPoint, error) {
	var mu sync.Mutex
	set := make(map[string][]models.SeriesPoint, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(infra.FetchLimit())
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			points, err := src.Series(gctx, req)
			if err != nil {
				return err
			}
			mu.Lock()
			set[req.Name] = points
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// flattenSet converts a fetched set into long-format observations,
// preserving the request order.
func flattenSet(reqs []SeriesRequest, set map[string][]models.SeriesPoint) []models.MonetaryVariable {
	var out []models.MonetaryVariable
	for _, req := range reqs {
		for _, p := range set[req.Name] {
			out = append(out, models.MonetaryVariable{
				Date:       p.Date,
				VariableID: req.VariableID,
				Name:       req.Name,
				Value:      p.Value,
			})
		}
	}
	return out
}

// derivedSum builds a derived series summing the named components on the
// dates where all of them exist.
func derivedSum(name string, set map[string][]models.SeriesPoint, components ...string) []models.MonetaryVariable {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, comp := range components {
		for _, p := range set[comp] {
			sums[p.Date] += p.Value
			counts[p.Date]++
		}
	}

	var out []models.MonetaryVariable
	for date, n := range counts {
		if n != len(components) {
			continue
		}
		out = append(out, models.MonetaryVariable{Date: date, Name: name, Value: sums[date]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
