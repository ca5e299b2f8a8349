package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/latamjobs/jobsync/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby job board API response.
type ashbyJob struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Location           string          `json:"location"`
	SecondaryLocations []ashbyLocation `json:"secondaryLocations"`
	Department         string          `json:"department"`
	EmploymentType     string          `json:"employmentType"`
	IsRemote           *bool           `json:"isRemote"`
	IsListed           *bool           `json:"isListed"`
	DescriptionHTML    string          `json:"descriptionHtml"`
	JobURL             string          `json:"jobUrl"`
	ApplyURL           string          `json:"applyUrl"`
	PublishedAt        string          `json:"publishedAt"`
	Address            ashbyAddress    `json:"address"`
}

type ashbyLocation struct {
	Location string `json:"location"`
}

type ashbyAddress struct {
	PostalAddress ashbyPostalAddress `json:"postalAddress"`
}

type ashbyPostalAddress struct {
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
	AddressCountry  string `json:"addressCountry"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// Ashby fetches postings from the Ashby public job board API.
// Required config: board_token.
type Ashby struct {
	client *http.Client
	gate   Gate
	logger *slog.Logger
}

// NewAshby creates a fetcher for Ashby job boards.
func NewAshby(client *http.Client, gate Gate, logger *slog.Logger) *Ashby {
	return &Ashby{client: client, gate: gate, logger: logger}
}

// Fetch retrieves all postings from the board. Unlisted postings count
// toward Found but never reach the sink.
func (f *Ashby) Fetch(ctx context.Context, source model.JobSource, sink model.Sink) (model.FetchResult, error) {
	result := model.NewFetchResult()

	token, err := requireConfig(source, "board_token")
	if err != nil {
		result.Stats.Errors = 1
		return result, err
	}

	url := fmt.Sprintf("%s/%s?includeCompensation=true", ashbyBaseURL, token)

	var ashbyResp ashbyResponse
	if err := getJSON(ctx, f.client, url, source.Config["api_token"], &ashbyResp); err != nil {
		result.Stats.Errors = 1
		return result, fmt.Errorf("ashby fetch for %s: %w", token, err)
	}

	for _, aj := range ashbyResp.Jobs {
		result.Stats.Found++

		raw := model.RawJob{
			ID:             aj.ID,
			Title:          aj.Title,
			Description:    aj.DescriptionHTML,
			Location:       aj.Location,
			Country:        aj.Address.PostalAddress.AddressCountry,
			Address:        joinAddress(aj.Address.PostalAddress),
			IsRemote:       aj.IsRemote,
			IsListed:       aj.IsListed,
			EmploymentType: aj.EmploymentType,
			PublishedAt:    aj.PublishedAt,
			ApplyURL:       aj.JobURL,
			Department:     aj.Department,
		}
		if raw.ApplyURL == "" {
			raw.ApplyURL = aj.ApplyURL
		}
		for _, sl := range aj.SecondaryLocations {
			raw.SecondaryLocations = append(raw.SecondaryLocations, sl.Location)
		}

		if raw.ID != "" {
			result.FoundIDs[raw.ID] = struct{}{}
		} else if raw.ApplyURL != "" {
			result.FoundIDs[raw.ApplyURL] = struct{}{}
		}

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

func joinAddress(a ashbyPostalAddress) string {
	addr := ""
	for _, part := range []string{a.AddressLocality, a.AddressRegion, a.AddressCountry} {
		if part == "" {
			continue
		}
		if addr != "" {
			addr += ", "
		}
		addr += part
	}
	return addr
}
