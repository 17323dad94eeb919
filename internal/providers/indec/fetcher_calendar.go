package indec

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/mmcdole/gofeed"

	"github.com/andesdata/dataseb/internal/provider"
	"github.com/andesdata/dataseb/pkg/models"
)

// calendarFetcher reads the institutional RSS feed of scheduled releases.
type calendarFetcher struct {
	provider.BaseFetcher
	p      *Provider
	parser *gofeed.Parser
}

func newCalendarFetcher(p *Provider) *calendarFetcher {
	return &calendarFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelReleaseCalendar,
			"INDEC scheduled statistical releases",
			nil,
			[]string{provider.ParamLimit},
		),
		p:      p,
		parser: gofeed.NewParser(),
	}
}

func (f *calendarFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	cacheKey := provider.CacheKey(provider.ModelReleaseCalendar, params)
	if cached, ok := f.CacheGet(cacheKey); ok {
		return cached.(*provider.FetchResult), nil
	}

	feed, err := f.parser.ParseURLWithContext(f.p.cfg.CalendarFeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("release calendar: %w", err)
	}

	var events []models.ReleaseEvent
	for _, item := range feed.Items {
		ev := models.ReleaseEvent{
			Title: item.Title,
			Link:  item.Link,
		}
		if item.PublishedParsed != nil {
			ev.Date = *item.PublishedParsed
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })

	if s := params[provider.ParamLimit]; s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return nil, &provider.ErrInvalidParam{Param: provider.ParamLimit, Value: s}
		}
		if limit < len(events) {
			events = events[:limit]
		}
	}

	result := newResult(events)
	f.CacheSet(cacheKey, result)
	return result, nil
}
