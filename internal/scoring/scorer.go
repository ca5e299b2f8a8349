// Package scoring implements the keyword/regex relevance engine. Signals are
// compiled once at startup into an immutable value; scoring itself is a pure
// function over the compiled table.
package scoring

import (
	"log/slog"
	"regexp"
	"strings"
)

// SignalEntry is one configured keyword or regex pattern with its weight.
// Negative weights penalize.
type SignalEntry struct {
	Keyword string
	Pattern string
	Weight  int
}

// GroupConfig is the raw, uncompiled form of one signal group.
type GroupConfig []SignalEntry

// Config holds the four raw signal groups as loaded from the config file.
type Config struct {
	PositiveLocation GroupConfig
	NegativeLocation GroupConfig
	PositiveContent  GroupConfig
	NegativeContent  GroupConfig
}

// compiledEntry is a ready-to-match signal. Exactly one of keyword/pattern
// is set.
type compiledEntry struct {
	keyword string // lowercased substring
	pattern *regexp.Regexp
	weight  int
}

type compiledGroup []compiledEntry

// Signals is the compiled, immutable scoring table. Construct with Compile;
// never mutate after that; configuration changes require recompiling.
type Signals struct {
	positiveLocation compiledGroup
	negativeLocation compiledGroup
	positiveContent  compiledGroup
	negativeContent  compiledGroup

	skipped int // invalid patterns dropped at compile time
}

// JobText is the scorable view of a posting.
type JobText struct {
	Title       string
	Description string
	Location    string
}

// Compile builds the immutable signal table. An invalid regex pattern is
// skipped and logged, never fatal: a misconfigured pattern contributes zero
// but the skip stays observable in the logs and in Skipped().
func Compile(cfg Config, logger *slog.Logger) *Signals {
	s := &Signals{}
	s.positiveLocation = s.compileGroup("positive_location", cfg.PositiveLocation, logger)
	s.negativeLocation = s.compileGroup("negative_location", cfg.NegativeLocation, logger)
	s.positiveContent = s.compileGroup("positive_content", cfg.PositiveContent, logger)
	s.negativeContent = s.compileGroup("negative_content", cfg.NegativeContent, logger)
	return s
}

func (s *Signals) compileGroup(name string, entries GroupConfig, logger *slog.Logger) compiledGroup {
	group := make(compiledGroup, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.Pattern != "":
			re, err := regexp.Compile("(?i)" + e.Pattern)
			if err != nil {
				s.skipped++
				logger.Warn("skipping invalid scoring pattern",
					"group", name,
					"pattern", e.Pattern,
					"error", err,
				)
				continue
			}
			group = append(group, compiledEntry{pattern: re, weight: e.Weight})
		case e.Keyword != "":
			group = append(group, compiledEntry{keyword: strings.ToLower(e.Keyword), weight: e.Weight})
		}
	}
	return group
}

// Skipped reports how many configured patterns failed to compile.
func (s *Signals) Skipped() int { return s.skipped }

// Score computes the signed relevance score for a posting. Location groups
// match the location text alone; content groups match the concatenation of
// title, description, and location. Matching is case-insensitive substring
// (keywords) or regex. The result is the unweighted sum across all four
// groups with no clamping; callers decide what counts as relevant.
func (s *Signals) Score(text JobText) int {
	location := strings.ToLower(text.Location)
	content := strings.ToLower(strings.Join([]string{text.Title, text.Description, text.Location}, " "))

	total := 0
	total += s.positiveLocation.score(location)
	total += s.negativeLocation.score(location)
	total += s.positiveContent.score(content)
	total += s.negativeContent.score(content)
	return total
}

func (g compiledGroup) score(haystack string) int {
	total := 0
	for _, e := range g {
		if e.pattern != nil {
			if e.pattern.MatchString(haystack) {
				total += e.weight
			}
			continue
		}
		if strings.Contains(haystack, e.keyword) {
			total += e.weight
		}
	}
	return total
}
