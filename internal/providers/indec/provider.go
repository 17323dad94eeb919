// Package indec implements a data provider for INDEC, Argentina's national
// statistics institute. CPI series come from semicolon-delimited CSV files
// published on the INDEC FTP site (ISO-8859-1 encoded, comma decimals),
// activity and GDP series from published workbooks, and the release
// calendar from the institutional RSS feed.
package indec

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/andesdata/dataseb/internal/config"
	"github.com/andesdata/dataseb/internal/infra"
	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/internal/series"
)

const providerName = "indec"

// Provider is the INDEC data provider.
type Provider struct {
	provider.BaseProvider
	cfg config.INDECConfig
}

// New creates a new INDEC provider and registers all fetchers.
func New(cfg config.INDECConfig) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"INDEC - Argentine national statistics (CPI, activity, GDP)",
			"https://www.indec.gob.ar",
		),
		cfg: cfg,
	}

	p.RegisterFetcher(newCPIFetcher(p))
	p.RegisterFetcher(newDivisionsFetcher(p))
	p.RegisterFetcher(newOpeningsFetcher(p))
	p.RegisterFetcher(newWeightsFetcher(p))
	p.RegisterFetcher(newActivityFetcher(p))
	p.RegisterFetcher(newSectorFetcher(p))
	p.RegisterFetcher(newGDPFetcher(p, provider.ModelGDPNominal))
	p.RegisterFetcher(newGDPFetcher(p, provider.ModelGDPReal))
	p.RegisterFetcher(newCalendarFetcher(p))

	return p
}

// Ping verifies connectivity to the INDEC FTP site.
func (p *Provider) Ping(ctx context.Context) error {
	body, status, err := infra.DoGet(ctx, p.cfg.CPIDivisionsURL, nil)
	if err != nil {
		return fmt.Errorf("indec ping: %w", err)
	}
	body.Close()
	if status >= 400 {
		return fmt.Errorf("indec ping: HTTP %d", status)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// fetchCSV fetches a semicolon-delimited INDEC CSV, decoding ISO-8859-1 to
// UTF-8. The first row is the header.
func (p *Provider) fetchCSV(ctx context.Context, url string) ([][]string, error) {
	body, status, err := infra.DoGet(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if status >= 400 {
		return nil, fmt.Errorf("HTTP %d from %s", status, url)
	}

	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(body))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// fetchBytes downloads a workbook or other binary file.
func (p *Provider) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	body, status, err := infra.DoGet(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if status >= 400 {
		return nil, fmt.Errorf("HTTP %d from %s", status, url)
	}
	return io.ReadAll(body)
}

// findColumn returns the index of a column name in the header, or -1.
func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// parseDecimal parses an INDEC numeric cell, which uses a comma as the
// decimal separator. Blank or non-numeric cells yield NaN.
func parseDecimal(s string) float64 {
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

// parsePeriod parses a YYYYMM period code into the month-end date.
func parsePeriod(code string) (time.Time, bool) {
	t, err := series.ParsePeriod(strings.TrimSpace(code))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// newResult wraps data in a FetchResult.
func newResult(data any) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
	}
}
