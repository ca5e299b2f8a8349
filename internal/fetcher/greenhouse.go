package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/latamjobs/jobsync/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse boards API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	Content     string             `json:"content"`
	UpdatedAt   string             `json:"updated_at"`
	Offices     []greenhouseOffice `json:"offices"`
	Departments []greenhouseDept   `json:"departments"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseOffice struct {
	Name string `json:"name"`
}

type greenhouseDept struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// Greenhouse fetches postings from the Greenhouse public boards API.
// Required config: board_token. Optional: api_token (bearer auth).
type Greenhouse struct {
	client *http.Client
	gate   Gate
	logger *slog.Logger
}

// NewGreenhouse creates a fetcher for Greenhouse boards.
func NewGreenhouse(client *http.Client, gate Gate, logger *slog.Logger) *Greenhouse {
	return &Greenhouse{client: client, gate: gate, logger: logger}
}

// Fetch retrieves all postings from the board, gates each one, and forwards
// admitted records to the sink.
func (f *Greenhouse) Fetch(ctx context.Context, source model.JobSource, sink model.Sink) (model.FetchResult, error) {
	result := model.NewFetchResult()

	token, err := requireConfig(source, "board_token")
	if err != nil {
		result.Stats.Errors = 1
		return result, err
	}

	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, token)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, f.client, url, source.Config["api_token"], &ghResp); err != nil {
		result.Stats.Errors = 1
		return result, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}

	for _, gj := range ghResp.Jobs {
		result.Stats.Found++

		raw := model.RawJob{
			ID:          fmt.Sprintf("%d", gj.ID),
			Title:       gj.Title,
			Description: gj.Content,
			Location:    gj.Location.Name,
			PublishedAt: gj.UpdatedAt,
			ApplyURL:    gj.AbsoluteURL,
		}
		for _, o := range gj.Offices {
			raw.SecondaryLocations = append(raw.SecondaryLocations, o.Name)
		}
		if len(gj.Departments) > 0 {
			raw.Department = gj.Departments[0].Name
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
