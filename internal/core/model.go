package core

import (
	"time"
)

// Classification is the binary verdict for a call transcript.
type Classification string

const (
	MarketingSpam Classification = "MARKETING_SPAM"
	Legitimate    Classification = "LEGITIMATE"
)

// Source tags identify which interpretation path produced a result.
const (
	SourceModelStructured       = "model-structured"
	SourceModelFallbackParse    = "model-fallback-parse"
	SourceDeterministicFallback = "deterministic-fallback"
	SourceTooShort              = "too-short"
	SourceCache                 = "cache"
	SourceError                 = "error"
)

// DetectionResult is the outcome of classifying a single transcript.
// IsSpam is derived from Classification by the service and is never set
// anywhere else.
type DetectionResult struct {
	Classification    Classification `json:"classification"`
	Confidence        float64        `json:"confidence"`
	IsSpam            bool           `json:"is_spam"`
	Reasoning         string         `json:"reasoning"`
	KeyIndicators     []string       `json:"key_indicators,omitempty"`
	Source            string         `json:"source"`
	TranscriptPreview string         `json:"transcript_preview,omitempty"`
	Timestamp         string         `json:"timestamp,omitempty"`
	ModelUsed         string         `json:"model_used,omitempty"`
	ProcessingID      string         `json:"processing_id,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// CacheEntry is a cached classification keyed by transcript hash.
type CacheEntry struct {
	TranscriptHash string
	Classification Classification
	Confidence     float64
	Reasoning      string
	LastSeen       time.Time
	ExpiresAt      time.Time
}
