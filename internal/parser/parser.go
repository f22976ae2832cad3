// Package parser turns raw, possibly malformed model output into a
// structured classification. Parsing never fails: a structured JSON payload
// is preferred, and anything else falls through to a lexical parse with
// unconditional defaults.
package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mikey/llm-call-filter/internal/core"
	"go.uber.org/zap"
)

// Response is the parser's best-effort interpretation of model output.
type Response struct {
	Classification core.Classification
	Confidence     float64
	Reasoning      string
	KeyIndicators  []string
	Source         string
}

// structuredPayload is the JSON object the model is instructed to emit.
// Confidence is kept raw so numeric strings can be coerced.
type structuredPayload struct {
	Classification string          `json:"classification"`
	Confidence     json.RawMessage `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	KeyIndicators  []string        `json:"key_indicators"`
}

var (
	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	confidencePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%|confidence[:\s]+(\d+(?:\.\d+)?)`)
)

// Spam synonyms checked by the lexical fallback, uppercased.
var spamTokens = []string{"MARKETING", "SPAM", "SCAM", "UNSOLICITED", "SALES PITCH", "TELEMARKETER"}

// Synonyms used to re-infer an unrecognized structured classification label.
var spamLabelTokens = []string{"MARKETING", "SPAM", "SCAM"}

const (
	defaultConfidence   = 75
	ambiguousConfidence = 70
	maxReasoningLength  = 200
)

// ResponseParser extracts a classification from raw model output.
type ResponseParser struct {
	logger *zap.Logger
}

// New creates a response parser.
func New(logger *zap.Logger) *ResponseParser {
	return &ResponseParser{logger: logger}
}

// Parse interprets raw model output. It always returns a usable response;
// the Source field records which tier produced it.
func (p *ResponseParser) Parse(raw string) *Response {
	if resp, ok := p.parseStructured(raw); ok {
		return resp
	}
	return p.parseLexical(raw)
}

// Interpret adapts Parse to the core service's ResponseInterpreter contract.
func (p *ResponseParser) Interpret(raw string) (core.Classification, float64, string, []string, string) {
	r := p.Parse(raw)
	return r.Classification, r.Confidence, r.Reasoning, r.KeyIndicators, r.Source
}

// parseStructured extracts an embedded JSON payload. Any missing or
// malformed required field fails the whole tier.
func (p *ResponseParser) parseStructured(raw string) (*Response, bool) {
	match := jsonObjectPattern.FindString(raw)
	if match == "" {
		return nil, false
	}

	var payload structuredPayload
	if err := json.Unmarshal([]byte(match), &payload); err != nil {
		p.logger.Debug("Failed to parse structured payload, falling back to lexical parse", zap.Error(err))
		return nil, false
	}

	if payload.Classification == "" || payload.Reasoning == "" {
		return nil, false
	}

	confidence, ok := coerceConfidence(payload.Confidence)
	if !ok {
		p.logger.Debug("Structured payload has non-numeric confidence, falling back to lexical parse")
		return nil, false
	}

	classification := core.Classification(strings.ToUpper(payload.Classification))
	if classification != core.MarketingSpam && classification != core.Legitimate {
		// Unrecognized label: re-infer from the raw text as a whole.
		if containsAny(strings.ToUpper(raw), spamLabelTokens) {
			classification = core.MarketingSpam
		} else {
			classification = core.Legitimate
		}
	}

	indicators := payload.KeyIndicators
	if indicators == nil {
		indicators = []string{}
	}

	return &Response{
		Classification: classification,
		Confidence:     confidence,
		Reasoning:      payload.Reasoning,
		KeyIndicators:  indicators,
		Source:         core.SourceModelStructured,
	}, true
}

// parseLexical classifies from trigger-word presence alone. An explicit
// LEGITIMATE token wins over co-occurring spam tokens; output with neither
// kind of token defaults to legitimate at reduced confidence.
func (p *ResponseParser) parseLexical(raw string) *Response {
	upper := strings.ToUpper(raw)

	var classification core.Classification
	confidence := float64(defaultConfidence)
	switch {
	case strings.Contains(upper, "LEGITIMATE"):
		classification = core.Legitimate
	case containsAny(upper, spamTokens):
		classification = core.MarketingSpam
	default:
		classification = core.Legitimate
		confidence = ambiguousConfidence
	}

	if c, ok := extractConfidence(raw); ok {
		confidence = c
	}

	return &Response{
		Classification: classification,
		Confidence:     confidence,
		Reasoning:      truncateReasoning(raw),
		KeyIndicators:  []string{},
		Source:         core.SourceModelFallbackParse,
	}
}

// coerceConfidence accepts a JSON number or a numeric string.
func coerceConfidence(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}

	return 0, false
}

// extractConfidence scans free text for a percentage or "confidence: N".
func extractConfidence(raw string) (float64, bool) {
	m := confidencePattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}

	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func truncateReasoning(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) <= maxReasoningLength {
		return raw
	}
	cut := raw[:maxReasoningLength]
	// Back off to a rune boundary so the reasoning stays valid UTF-8.
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

func containsAny(upper string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return false
}
