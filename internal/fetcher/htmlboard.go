package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/latamjobs/jobsync/internal/model"
)

// Default selectors for HTML job boards. Individual sources can override any
// of them through their config map.
const (
	defaultItemSelector       = ".job-listing"
	defaultTitleSelector      = ".job-title"
	defaultLinkSelector       = "a"
	defaultLocationSelector   = ".job-location"
	defaultDepartmentSelector = ".job-department"
)

// HTMLBoard fetches postings from a static HTML job-board page, extracting a
// minimal tuple per posting block. Full content is obtained later by the HTML
// processor from the individual posting page.
//
// Required config: url. Optional: item_selector, title_selector,
// link_selector, location_selector, department_selector.
type HTMLBoard struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTMLBoard creates a fetcher for HTML listing pages.
func NewHTMLBoard(client *http.Client, logger *slog.Logger) *HTMLBoard {
	return &HTMLBoard{client: client, logger: logger}
}

// Fetch retrieves the listing page and extracts one raw record per posting
// block. Postings without an application link are counted as Found, logged,
// and skipped. The relevance decision for HTML sources happens in the
// processor, after the detail fetch; here everything with a link is relevant.
func (f *HTMLBoard) Fetch(ctx context.Context, source model.JobSource, sink model.Sink) (model.FetchResult, error) {
	result := model.NewFetchResult()

	pageURL, err := requireConfig(source, "url")
	if err != nil {
		result.Stats.Errors = 1
		return result, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		result.Stats.Errors = 1
		return result, &model.ConfigError{Source: source.Name, Field: "url", Reason: "is not a valid URL"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		result.Stats.Errors = 1
		return result, fmt.Errorf("html listing request for %s: %w", source.Name, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		result.Stats.Errors = 1
		return result, fmt.Errorf("html listing fetch for %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Stats.Errors = 1
		return result, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("html listing fetch for %s: unexpected status %d", source.Name, resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		result.Stats.Errors = 1
		return result, fmt.Errorf("html listing parse for %s: %w", source.Name, err)
	}

	sel := func(key, fallback string) string {
		if v := source.Config[key]; v != "" {
			return v
		}
		return fallback
	}

	doc.Find(sel("item_selector", defaultItemSelector)).Each(func(_ int, item *goquery.Selection) {
		result.Stats.Found++

		title := strings.TrimSpace(item.Find(sel("title_selector", defaultTitleSelector)).First().Text())
		location := strings.TrimSpace(item.Find(sel("location_selector", defaultLocationSelector)).First().Text())
		department := strings.TrimSpace(item.Find(sel("department_selector", defaultDepartmentSelector)).First().Text())

		href, _ := item.Find(sel("link_selector", defaultLinkSelector)).First().Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			f.logger.Warn("posting without application link skipped",
				"source", source.Name,
				"title", title,
			)
			return
		}

		applyURL := href
		if rel, err := url.Parse(href); err == nil {
			applyURL = base.ResolveReference(rel).String()
		}

		raw := model.RawJob{
			ID:         applyURL,
			Title:      title,
			Location:   location,
			Department: department,
			ApplyURL:   applyURL,
		}

		result.FoundIDs[raw.ID] = struct{}{}
		result.Stats.Relevant++

		if sink.ProcessRaw(ctx, source, raw) {
			result.Stats.Processed++
		} else {
			f.logger.Warn("job not saved",
				"source", source.Name,
				"source_id", raw.ID,
				"title", raw.Title,
			)
		}
	})

	return result, nil
}
