package processor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/textutil"
)

// headingSelector matches the markers that delimit posting-page sections.
const headingSelector = "h1, h2, h3, h4, strong"

// HTMLBoard standardizes records from HTML listing pages. The listing only
// carries a minimal tuple, so Process fetches the individual posting page
// and parses its sections from known heading markers before standardizing.
type HTMLBoard struct {
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewHTMLBoard creates the processor for HTML board records.
func NewHTMLBoard(client *http.Client, logger *slog.Logger) *HTMLBoard {
	return &HTMLBoard{client: client, logger: logger, now: time.Now}
}

// Process fetches the posting page behind the record's apply URL, extracts
// the structured sections, and standardizes the result. A non-2xx detail
// response is a processing failure, not a silent skip.
func (p *HTMLBoard) Process(ctx context.Context, raw model.RawJob, source model.JobSource) (*model.StandardizedJob, error) {
	if raw.ID == "" && raw.ApplyURL == "" {
		return nil, ErrMissingSourceID
	}

	sections, err := p.fetchSections(ctx, raw.ApplyURL)
	if err != nil {
		return nil, fmt.Errorf("detail fetch for %s: %w", raw.ApplyURL, err)
	}

	raw.Description = sections.description

	job, err := standardize(raw, source, p.logger, p.now)
	if err != nil {
		return nil, err
	}

	job.Responsibilities = textutil.StripHTML(sections.responsibilities)
	job.Requirements = textutil.StripHTML(sections.qualifications)
	job.Benefits = textutil.StripHTML(sections.benefits)
	return job, nil
}

// sections holds the raw HTML of each recognized posting-page section.
type sections struct {
	description      string
	responsibilities string
	qualifications   string
	benefits         string
}

// fetchSections retrieves the posting page and splits it on heading markers.
func (p *HTMLBoard) fetchSections(ctx context.Context, pageURL string) (sections, error) {
	var s sections

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return s, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return s, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return s, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return s, err
	}

	doc.Find(headingSelector).Each(func(_ int, heading *goquery.Selection) {
		body := heading.NextUntil(headingSelector).Text()
		if body == "" {
			return
		}

		switch classifyHeading(heading.Text()) {
		case "description":
			s.description += " " + body
		case "responsibilities":
			s.responsibilities += " " + body
		case "qualifications":
			s.qualifications += " " + body
		case "benefits":
			s.benefits += " " + body
		}
	})

	// Pages without recognizable headings still yield a usable description.
	if s.description == "" && s.responsibilities == "" && s.qualifications == "" && s.benefits == "" {
		s.description = doc.Find("body").Text()
	}

	return s, nil
}

// classifyHeading maps a heading text to the section it introduces.
func classifyHeading(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "responsibilit") || strings.Contains(t, "what you'll do"):
		return "responsibilities"
	case strings.Contains(t, "qualification") || strings.Contains(t, "requirement") || strings.Contains(t, "what we're looking for"):
		return "qualifications"
	case strings.Contains(t, "benefit") || strings.Contains(t, "perks") || strings.Contains(t, "what we offer"):
		return "benefits"
	case strings.Contains(t, "about") || strings.Contains(t, "description") || strings.Contains(t, "overview") || strings.Contains(t, "the role"):
		return "description"
	default:
		return ""
	}
}
