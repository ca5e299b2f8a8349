// Package processor maps raw fetcher records into the canonical
// StandardizedJob representation: stable id resolution, relevance
// classification, content extraction, and company metadata backfill.
package processor

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/latamjobs/jobsync/internal/classify"
	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/textutil"
)

// Sentinel rejections. The messages are part of the operational contract:
// run logs and tests match on them.
var (
	ErrMissingSourceID = errors.New("Missing jobUrl to use as sourceId")
	ErrIrrelevant      = errors.New("Job determined irrelevant")
)

// standardize performs the shared processing steps for every source type:
//
//  1. resolve a stable source id (explicit id, else the apply URL)
//  2. classify workplace type and hiring region
//  3. strip HTML and extract skills, job type, experience level
//  4. assemble the display location
//  5. reject unlisted or unclassifiable records
//  6. backfill company metadata from the owning JobSource
func standardize(raw model.RawJob, source model.JobSource, logger *slog.Logger, now func() time.Time) (*model.StandardizedJob, error) {
	sourceID := raw.ID
	if sourceID == "" {
		sourceID = raw.ApplyURL
	}
	if sourceID == "" {
		return nil, ErrMissingSourceID
	}

	if raw.IsListed != nil && !*raw.IsListed {
		return nil, ErrIrrelevant
	}

	workplace, region, ok := classify.Location(raw)
	if !ok {
		return nil, ErrIrrelevant
	}
	logger.Debug("location classified",
		"source_id", sourceID,
		"workplace", workplace,
		"region", region,
	)

	title := strings.TrimSpace(raw.Title)
	description := textutil.StripHTML(raw.Description)

	fragments := append([]string{raw.Location, raw.Address}, raw.SecondaryLocations...)
	location := classify.JoinLocations(fragments...)
	if location == classify.LocationUnknown && workplace == model.WorkplaceRemote {
		location = "Remote"
	}

	stamp := now().UTC()
	publishedAt := stamp
	if t := textutil.ParseDate(raw.PublishedAt); t != nil {
		publishedAt = t.UTC()
	}

	return &model.StandardizedJob{
		Source:          source.Type,
		SourceID:        sourceID,
		Title:           title,
		Description:     description,
		Skills:          classify.Skills(title + " " + description),
		JobType:         classify.JobType(raw.EmploymentType),
		ExperienceLevel: classify.ExperienceLevel(title, description),
		WorkplaceType:   workplace,
		HiringRegion:    region,
		Location:        location,
		ApplicationURL:  raw.ApplyURL,
		CompanyName:     source.Name,
		CompanyWebsite:  source.CompanyWebsite,
		CompanyLogo:     source.LogoURL,
		PublishedAt:     publishedAt,
		Status:          model.StatusActive,
		UpdatedAt:       stamp,
	}, nil
}
