package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResponseInterpreter turns raw model output into a classification. It must
// never fail; see the parser package.
type ResponseInterpreter interface {
	Interpret(raw string) (classification Classification, confidence float64, reasoning string, indicators []string, source string)
}

// FallbackClassifier is the deterministic classifier used when no model
// response is available at all.
type FallbackClassifier func(transcript string) *DetectionResult

// IndicatorEnricher scans a transcript for lexical cues tied to a
// classification label.
type IndicatorEnricher func(transcript string, classification Classification) []string

// TranscriptProcessor prepares transcript text before it is embedded in a
// prompt (truncation, UTF-8 sanitization).
type TranscriptProcessor interface {
	ProcessText(text string, maxSize int) string
}

const (
	minTranscriptLength = 5
	previewLength       = 150
)

// DetectorService classifies call transcripts. It owns the control flow:
// short-transcript short circuit, cache lookup, prompt/model/parse pipeline,
// deterministic fallback on transport failure, and result aggregation.
type DetectorService struct {
	llmClient       LLMClient
	cache           CacheRepository
	interpreter     ResponseInterpreter
	fallback        FallbackClassifier
	enrich          IndicatorEnricher
	buildPrompt     func(transcript string) string
	textProcessor   TranscriptProcessor
	logger          *zap.Logger
	cacheEnabled    bool
	cacheTTL        time.Duration
	fallbackOnError bool
	maxPromptSize   int
}

// NewDetectorService creates a new transcript detector service.
func NewDetectorService(
	llmClient LLMClient,
	cache CacheRepository,
	interpreter ResponseInterpreter,
	fallback FallbackClassifier,
	enrich IndicatorEnricher,
	buildPrompt func(transcript string) string,
	textProcessor TranscriptProcessor,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	fallbackOnError bool,
	maxPromptSize int,
) *DetectorService {
	return &DetectorService{
		llmClient:       llmClient,
		cache:           cache,
		interpreter:     interpreter,
		fallback:        fallback,
		enrich:          enrich,
		buildPrompt:     buildPrompt,
		textProcessor:   textProcessor,
		logger:          logger,
		cacheEnabled:    cacheEnabled,
		cacheTTL:        cacheTTL,
		fallbackOnError: fallbackOnError,
		maxPromptSize:   maxPromptSize,
	}
}

// Detect classifies a single transcript. The transcript is never mutated;
// every result is freshly constructed.
//
// When the model transport fails, the configured policy decides between the
// deterministic fallback classifier (default) and surfacing the error.
func (s *DetectorService) Detect(ctx context.Context, transcript string) (*DetectionResult, error) {
	if len(strings.TrimSpace(transcript)) < minTranscriptLength {
		result := &DetectionResult{
			Classification: Legitimate,
			Confidence:     50,
			Reasoning:      "Too short to analyze",
			Source:         SourceTooShort,
		}
		return s.finalize(result, transcript), nil
	}

	hash := transcriptHash(transcript)
	if s.cacheEnabled {
		if entry, err := s.cache.Get(ctx, hash); err == nil {
			s.logger.Debug("Cache hit for transcript", zap.String("hash", hash))
			result := &DetectionResult{
				Classification: entry.Classification,
				Confidence:     entry.Confidence,
				Reasoning:      entry.Reasoning,
				Source:         SourceCache,
			}
			return s.finalize(result, transcript), nil
		}
	}

	processed := s.textProcessor.ProcessText(transcript, s.maxPromptSize)
	prompt := s.buildPrompt(processed)

	raw, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		if !s.fallbackOnError {
			return nil, err
		}
		s.logger.Warn("Model call failed, using deterministic fallback classifier", zap.Error(err))
		return s.finalize(s.fallback(transcript), transcript), nil
	}

	classification, confidence, reasoning, indicators, source := s.interpreter.Interpret(raw)

	// Indicator enrichment applies to the word-level tiers only; the
	// structured tier already carries the model's own indicators.
	if source != SourceModelStructured {
		indicators = s.enrich(transcript, classification)
	}

	result := &DetectionResult{
		Classification: classification,
		Confidence:     confidence,
		Reasoning:      reasoning,
		KeyIndicators:  indicators,
		Source:         source,
	}
	result = s.finalize(result, transcript)

	if s.cacheEnabled {
		entry := &CacheEntry{
			TranscriptHash: hash,
			Classification: result.Classification,
			Confidence:     result.Confidence,
			Reasoning:      result.Reasoning,
			LastSeen:       time.Now(),
			ExpiresAt:      time.Now().Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return result, nil
}

// DetectBatch classifies transcripts strictly sequentially, preserving order
// and the 1:1 input/output mapping. A failing item is recorded as an error
// result in its position; processing continues with the remainder.
func (s *DetectorService) DetectBatch(ctx context.Context, transcripts []string) []*DetectionResult {
	results := make([]*DetectionResult, 0, len(transcripts))

	for i, transcript := range transcripts {
		s.logger.Debug("Processing batch transcript",
			zap.Int("position", i+1),
			zap.Int("total", len(transcripts)))

		result, err := s.Detect(ctx, transcript)
		if err != nil {
			s.logger.Error("Batch transcript failed",
				zap.Int("position", i+1),
				zap.Error(err))
			result = s.finalize(&DetectionResult{
				Classification: Legitimate,
				Confidence:     0,
				Reasoning:      "Detection failed: " + err.Error(),
				Source:         SourceError,
				Error:          err.Error(),
			}, transcript)
		}
		results = append(results, result)
	}

	return results
}

// finalize is the result aggregator: it attaches request-independent
// metadata and derives IsSpam. It never alters the classification or
// confidence chosen upstream.
func (s *DetectorService) finalize(result *DetectionResult, transcript string) *DetectionResult {
	result.IsSpam = result.Classification == MarketingSpam
	result.Timestamp = time.Now().UTC().Format(time.RFC3339)
	result.TranscriptPreview = preview(transcript)
	result.ProcessingID = uuid.NewString()
	if result.ModelUsed == "" {
		switch result.Source {
		case SourceCache:
			result.ModelUsed = "cache"
		case SourceTooShort, SourceError:
			// No model was involved; the field stays empty.
		default:
			result.ModelUsed = s.llmClient.ModelID()
		}
	}
	return result
}

func preview(transcript string) string {
	if len(transcript) <= previewLength {
		return transcript
	}
	cut := transcript[:previewLength]
	// Back off to a rune boundary so the preview stays valid UTF-8.
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

func transcriptHash(transcript string) string {
	sum := sha256.Sum256([]byte(transcript))
	return hex.EncodeToString(sum[:])
}
