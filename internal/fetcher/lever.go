package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/latamjobs/jobsync/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever posting.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single posting in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	Country          string          `json:"country"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// Lever fetches postings from the Lever public postings API.
// Required config: company_slug.
type Lever struct {
	client *http.Client
	gate   Gate
	logger *slog.Logger
}

// NewLever creates a fetcher for Lever boards.
func NewLever(client *http.Client, gate Gate, logger *slog.Logger) *Lever {
	return &Lever{client: client, gate: gate, logger: logger}
}

// Fetch retrieves all postings for the configured company slug.
func (f *Lever) Fetch(ctx context.Context, source model.JobSource, sink model.Sink) (model.FetchResult, error) {
	result := model.NewFetchResult()

	slug, err := requireConfig(source, "company_slug")
	if err != nil {
		result.Stats.Errors = 1
		return result, err
	}

	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, slug)

	var leverJobs []leverJob
	if err := getJSON(ctx, f.client, url, source.Config["api_token"], &leverJobs); err != nil {
		result.Stats.Errors = 1
		return result, fmt.Errorf("lever fetch for %s: %w", slug, err)
	}

	for _, lj := range leverJobs {
		result.Stats.Found++

		raw := model.RawJob{
			ID:                 lj.ID,
			Title:              lj.Text,
			Description:        lj.Description,
			Location:           lj.Categories.Location,
			SecondaryLocations: lj.Categories.AllLocations,
			Country:            lj.Country,
			EmploymentType:     lj.Categories.Commitment,
			ApplyURL:           lj.HostedURL,
			Department:         lj.Categories.Department,
		}
		if lj.DescriptionPlain != "" {
			raw.Description = lj.DescriptionPlain
		}
		if lj.WorkplaceType != "" {
			isRemote := lj.WorkplaceType == "remote"
			raw.IsRemote = &isRemote
		}
		if lj.CreatedAt > 0 {
			raw.PublishedAt = strconv.FormatInt(lj.CreatedAt, 10)
		}

		result.FoundIDs[raw.ID] = struct{}{}

		if !f.gate.Admit(raw) {
			continue
		}
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
	}

	return result, nil
}
