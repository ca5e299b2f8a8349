// Package classify derives the canonical classification fields (workplace,
// hiring region, job type, experience level, skills) from raw posting data.
// All rules are ordered keyword checks; the first matching rule wins.
package classify

import (
	"strings"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/textutil"
)

// locationRule binds a keyword set to the classification it produces.
type locationRule struct {
	keywords  []string
	workplace model.WorkplaceType
	region    model.HiringRegion
}

// locationRules are evaluated in priority order over the combined location
// text. The explicit remote keyword outranks LATAM, which outranks Brazil:
// once a rule matches, later rules are never checked.
var locationRules = []locationRule{
	{
		keywords:  []string{"remote", "anywhere", "work from home", "fully distributed"},
		workplace: model.WorkplaceRemote,
		region:    model.RegionWorldwide,
	},
	{
		keywords:  []string{"latam", "latin america", "americas", "south america", "america latina", "américa latina"},
		workplace: model.WorkplaceRemote,
		region:    model.RegionLatam,
	},
	{
		keywords:  []string{"brazil", "brasil", "são paulo", "sao paulo", "rio de janeiro"},
		workplace: model.WorkplaceRemote,
		region:    model.RegionBrazil,
	},
}

// brazilCountries match structured country/address fields.
var brazilCountries = []string{"brazil", "brasil"}

// latamCountries is the structured-field fallback for the LATAM region.
var latamCountries = []string{
	"argentina", "bolivia", "chile", "colombia", "costa rica", "ecuador",
	"el salvador", "guatemala", "honduras", "mexico", "méxico", "nicaragua",
	"panama", "paraguay", "peru", "perú", "uruguay", "venezuela",
}

// Location determines workplace type and hiring region for a raw record.
// Structured fields are consulted first (explicit remote flag, country),
// then the free-text rules over title, location, and secondary locations.
// Returns ok=false when no qualifying signal was found.
func Location(raw model.RawJob) (model.WorkplaceType, model.HiringRegion, bool) {
	// Structured remote flag beats everything.
	if raw.IsRemote != nil && *raw.IsRemote {
		return model.WorkplaceRemote, regionFromCountry(raw), true
	}

	if region, ok := structuredRegion(raw); ok {
		return model.WorkplaceUnknown, region, true
	}

	text := strings.ToLower(strings.Join(append(
		[]string{raw.Title, raw.Location, raw.Address},
		raw.SecondaryLocations...), " "))

	for _, rule := range locationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.workplace, rule.region, true
			}
		}
	}

	return model.WorkplaceUnknown, model.RegionWorldwide, false
}

// regionFromCountry refines the region of an explicitly-remote posting using
// structured country data when present.
func regionFromCountry(raw model.RawJob) model.HiringRegion {
	if region, ok := structuredRegion(raw); ok {
		return region
	}
	return model.RegionWorldwide
}

func structuredRegion(raw model.RawJob) (model.HiringRegion, bool) {
	country := strings.ToLower(raw.Country + " " + raw.Address)
	if country == " " {
		return "", false
	}
	for _, c := range brazilCountries {
		if strings.Contains(country, c) {
			return model.RegionBrazil, true
		}
	}
	for _, c := range latamCountries {
		if strings.Contains(country, c) {
			return model.RegionLatam, true
		}
	}
	return "", false
}

// jobTypeTable maps normalized employment-type strings to the canonical
// JobType. Keys are NormalizeKey output.
var jobTypeTable = map[string]model.JobType{
	"fulltime":   model.JobTypeFullTime,
	"full time":  model.JobTypeFullTime,
	"permanent":  model.JobTypeFullTime,
	"parttime":   model.JobTypePartTime,
	"part time":  model.JobTypePartTime,
	"contract":   model.JobTypeContract,
	"contractor": model.JobTypeContract,
	"temporary":  model.JobTypeContract,
	"temp":       model.JobTypeContract,
	"freelance":  model.JobTypeContract,
	"internship": model.JobTypeInternship,
	"intern":     model.JobTypeInternship,
}

// JobType maps an upstream employment-type string to the canonical enum.
// Unknown or empty input yields JobTypeUnknown.
func JobType(employmentType string) model.JobType {
	if jt, ok := jobTypeTable[textutil.NormalizeKey(employmentType)]; ok {
		return jt
	}
	return model.JobTypeUnknown
}

// levelRule binds keywords to an experience level; evaluated in order.
type levelRule struct {
	keywords []string
	level    model.ExperienceLevel
}

var levelRules = []levelRule{
	{[]string{"staff", "principal", "lead", "head of", "manager"}, model.LevelLead},
	{[]string{"senior", "sr.", "sr "}, model.LevelSenior},
	{[]string{"junior", "jr.", "jr ", "entry level", "entry-level", "intern"}, model.LevelJunior},
}

// ExperienceLevel classifies seniority from the combined title and
// description. Title matches take precedence over description matches; a
// posting with no signal defaults to mid level.
func ExperienceLevel(title, description string) model.ExperienceLevel {
	for _, haystack := range []string{strings.ToLower(title), strings.ToLower(description)} {
		for _, rule := range levelRules {
			for _, kw := range rule.keywords {
				if strings.Contains(haystack, kw) {
					return rule.level
				}
			}
		}
	}
	return model.LevelMid
}

// skillTable is the extraction vocabulary: canonical skill name to the
// lowercase keywords that indicate it.
var skillTable = []struct {
	name     string
	keywords []string
}{
	{"Go", []string{"golang", " go,", " go ", "(go)", " go."}},
	{"Python", []string{"python"}},
	{"JavaScript", []string{"javascript", "node.js", "nodejs"}},
	{"TypeScript", []string{"typescript"}},
	{"React", []string{"react"}},
	{"Java", []string{" java ", " java,", "java."}},
	{"Ruby", []string{"ruby", "rails"}},
	{"PHP", []string{"php", "laravel"}},
	{"C#", []string{"c#", ".net"}},
	{"Rust", []string{"rust"}},
	{"Kotlin", []string{"kotlin"}},
	{"Swift", []string{"swift"}},
	{"SQL", []string{"sql", "postgres", "mysql"}},
	{"AWS", []string{"aws", "amazon web services"}},
	{"GCP", []string{"gcp", "google cloud"}},
	{"Azure", []string{"azure"}},
	{"Docker", []string{"docker"}},
	{"Kubernetes", []string{"kubernetes", "k8s"}},
	{"Terraform", []string{"terraform"}},
	{"DevOps", []string{"devops", "ci/cd"}},
}

// Skills extracts the known skill keywords present in the given text,
// deduplicated, in vocabulary order.
func Skills(text string) []string {
	haystack := " " + strings.ToLower(text) + " "
	var skills []string
	for _, entry := range skillTable {
		for _, kw := range entry.keywords {
			if strings.Contains(haystack, kw) {
				skills = append(skills, entry.name)
				break
			}
		}
	}
	return skills
}

// LocationUnknown is the placeholder emitted when a posting carries no
// location information at all.
const LocationUnknown = "Location Unknown"

// JoinLocations assembles the display location string: distinct non-empty
// fragments in discovery order, deduplicated case- and accent-insensitively.
// With no fragments it returns the LocationUnknown placeholder, never "".
func JoinLocations(fragments ...string) string {
	seen := make(map[string]struct{}, len(fragments))
	var parts []string
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := textutil.NormalizeKey(f)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, f)
	}
	if len(parts) == 0 {
		return LocationUnknown
	}
	return strings.Join(parts, ", ")
}
