// Package fetcher contains one fetcher per source type. A fetcher retrieves
// the posting list for a single configured JobSource, applies the first-pass
// relevance gate, and forwards admitted raw records to the processing sink.
//
// Accounting rules, shared by every fetcher: every raw record seen counts as
// Found; records that pass the gate count as Relevant; records the sink
// persists count as Processed. Errors is reserved for the fetch layer
// (config, transport, payload); a sink reject is a warning, never an error.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/scoring"
)

// Gate is the first-pass relevance check applied before a record is handed
// to the sink. Unlisted records never pass; everything else is admitted when
// its score reaches the configured minimum.
type Gate struct {
	Signals  *scoring.Signals
	MinScore int
}

// Admit reports whether a raw record is worth processing.
func (g Gate) Admit(raw model.RawJob) bool {
	if raw.IsListed != nil && !*raw.IsListed {
		return false
	}
	if g.Signals == nil {
		return true
	}
	score := g.Signals.Score(scoring.JobText{
		Title:       raw.Title,
		Description: raw.Description,
		Location:    locationText(raw),
	})
	return score >= g.MinScore
}

func locationText(raw model.RawJob) string {
	text := raw.Location
	for _, l := range raw.SecondaryLocations {
		text += " " + l
	}
	if raw.Country != "" {
		text += " " + raw.Country
	}
	return text
}

// getJSON issues a GET against url and decodes the JSON response into v.
// A bearer token is attached when non-empty. Non-2xx responses come back as
// *model.HTTPError.
func getJSON(ctx context.Context, client *http.Client, url, token string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// requireConfig fetches a required source config field, returning a
// ConfigError when it is missing or blank.
func requireConfig(source model.JobSource, field string) (string, error) {
	if v := source.Config[field]; v != "" {
		return v, nil
	}
	return "", &model.ConfigError{Source: source.Name, Field: field, Reason: "is required"}
}
