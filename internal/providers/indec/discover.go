package indec

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/andesdata/dataseb/internal/infra"
)

// discoverSupplyDemandURL scans the FTP index page for supply and demand
// workbooks and returns the most recent one. The published file name carries
// the quarter it covers (sh_oferta_demanda_12_24.xls), so the configured URL
// goes stale every quarter.
func (p *Provider) discoverSupplyDemandURL(ctx context.Context) (string, error) {
	body, status, err := infra.DoGet(ctx, p.cfg.FTPIndexURL, nil)
	if err != nil {
		return "", err
	}
	defer body.Close()
	if status >= 400 {
		return "", fmt.Errorf("HTTP %d from %s", status, p.cfg.FTPIndexURL)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", err
	}

	var candidates []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		name := href[strings.LastIndex(href, "/")+1:]
		if strings.HasPrefix(name, "sh_oferta_demanda_") {
			candidates = append(candidates, name)
		}
	})
	if len(candidates) == 0 {
		return "", fmt.Errorf("no supply and demand workbook found at %s", p.cfg.FTPIndexURL)
	}

	// File names embed month and two-digit year; the lexicographically
	// greatest year wins, then the month within it.
	sort.Slice(candidates, func(i, j int) bool {
		return supplyDemandKey(candidates[i]) < supplyDemandKey(candidates[j])
	})
	latest := candidates[len(candidates)-1]

	base, err := url.Parse(p.cfg.FTPIndexURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(latest)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// supplyDemandKey builds a sortable year-month key from a workbook name
// like "sh_oferta_demanda_12_24.xls". Components are zero-padded so an
// unpadded month ("6") does not outsort a two-digit one ("12").
func supplyDemandKey(name string) string {
	name = strings.TrimPrefix(name, "sh_oferta_demanda_")
	name = strings.TrimSuffix(name, ".xls")
	name = strings.TrimSuffix(name, ".xlsx")
	parts := strings.Split(name, "_")
	if len(parts) != 2 {
		return name
	}
	return pad2(parts[1]) + "-" + pad2(parts[0])
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
