// Package heuristic is the deterministic safety net: a weighted keyword
// classifier used when no model response is available, and the cue tables
// used to attach human-readable indicators to word-level results.
package heuristic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mikey/llm-call-filter/internal/core"
)

// keywordGroup maps a set of trigger phrases to an indicator label and a
// spam-score weight. Matching is literal substring matching on the lowercased
// transcript, except for the short triggers in wholeWordTriggers.
type keywordGroup struct {
	label    string
	weight   int
	triggers []string
}

var spamGroups = []keywordGroup{
	{"robocall button press request", 30, []string{"press 1", "press 2"}},
	{"warranty scam pattern", 25, []string{"warranty", "expire"}},
	{"urgency tactics", 20, []string{"urgent", "immediately", "final notice"}},
	{"government impersonation", 35, []string{"irs", "social security", "arrest"}},
	{"fake prize scam", 30, []string{"prize", "winner", "won"}},
}

var legitimateGroups = []keywordGroup{
	{"appointment confirmation", 0, []string{"appointment", "confirming", "scheduled"}},
	{"family contact", 0, []string{"mom", "dad", "grandma", "grandpa", "son", "daughter", "sister", "brother"}},
	{"delivery notification", 0, []string{"delivery", "package", "fedex", "ups", "usps", "amazon"}},
	{"medical/professional", 0, []string{"doctor", "dr.", "clinic"}},
}

// Generic indicators used when no lexical cue matched.
const (
	genericSpamIndicator       = "AI classified as spam based on language patterns"
	genericLegitimateIndicator = "AI classified as legitimate based on conversational tone"
)

const spamScoreThreshold = 20

// Short triggers that are substrings of everyday words ("won" in "wonderful",
// "irs" in "first", "mom" in "moment") match on word boundaries only.
var wholeWordTriggers = map[string]*regexp.Regexp{}

func init() {
	for _, w := range []string{"won", "irs", "mom", "dad", "son", "ups"} {
		wholeWordTriggers[w] = regexp.MustCompile(`\b` + w + `\b`)
	}
}

// Classify scores a transcript against the spam keyword groups. It is used
// when the model call failed outright and no response text exists.
//
// Confidence is clamped to [60, 95]: never below 60 (some baseline certainty)
// and never above 95 (a heuristic is never absolutely certain).
func Classify(transcript string) *core.DetectionResult {
	lower := strings.ToLower(transcript)

	score := 0
	var matched []string
	for _, g := range spamGroups {
		if matchesAny(lower, g.triggers) {
			score += g.weight
			matched = append(matched, g.label)
		}
	}

	isSpam := score > spamScoreThreshold

	var classification core.Classification
	var confidence float64
	if isSpam {
		classification = core.MarketingSpam
		confidence = min(float64(score)+50, 95)
	} else {
		classification = core.Legitimate
		confidence = min(max(100-float64(score), 60), 95)
	}

	return &core.DetectionResult{
		Classification: classification,
		Confidence:     confidence,
		Reasoning:      fmt.Sprintf("Pattern-based fallback classification (spam score %d); no model response available", score),
		KeyIndicators:  matched,
		Source:         core.SourceDeterministicFallback,
	}
}

// Indicators scans the transcript for lexical cues tied to the given
// classification and returns human-readable indicator descriptions. Returns
// a single generic indicator when nothing matches, so word-level results
// always carry at least one indicator.
func Indicators(transcript string, classification core.Classification) []string {
	lower := strings.ToLower(transcript)

	groups := legitimateGroups
	generic := genericLegitimateIndicator
	if classification == core.MarketingSpam {
		groups = spamGroups
		generic = genericSpamIndicator
	}

	var indicators []string
	for _, g := range groups {
		if matchesAny(lower, g.triggers) {
			indicators = append(indicators, g.label)
		}
	}

	if len(indicators) == 0 {
		return []string{generic}
	}
	return indicators
}

func matchesAny(lower string, triggers []string) bool {
	for _, t := range triggers {
		if re, ok := wholeWordTriggers[t]; ok {
			if re.MatchString(lower) {
				return true
			}
			continue
		}
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
