package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mikey/llm-call-filter/internal/core"
	"github.com/mikey/llm-call-filter/internal/heuristic"
	"github.com/mikey/llm-call-filter/internal/parser"
	"github.com/mikey/llm-call-filter/internal/prompt"
	"github.com/mikey/llm-call-filter/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLLM is a scripted LLM client: it returns responses in order, or errors
// on the positions listed in failOn.
type fakeLLM struct {
	responses []string
	failOn    map[int]bool
	calls     int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.failOn[f.calls] {
		return "", errors.New("model backend unreachable")
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeLLM) ModelID() string { return "fake-model" }

type memoryCacheStub struct {
	entries map[string]*core.CacheEntry
}

func newMemoryCacheStub() *memoryCacheStub {
	return &memoryCacheStub{entries: make(map[string]*core.CacheEntry)}
}

func (c *memoryCacheStub) Get(ctx context.Context, hash string) (*core.CacheEntry, error) {
	if entry, ok := c.entries[hash]; ok {
		return entry, nil
	}
	return nil, errors.New("not found")
}

func (c *memoryCacheStub) Set(ctx context.Context, entry *core.CacheEntry) error {
	c.entries[entry.TranscriptHash] = entry
	return nil
}

func (c *memoryCacheStub) Delete(ctx context.Context, hash string) error {
	delete(c.entries, hash)
	return nil
}

func (c *memoryCacheStub) Cleanup(ctx context.Context) error { return nil }

func newTestService(llm core.LLMClient, cache core.CacheRepository, fallbackOnError bool) *core.DetectorService {
	logger := zap.NewNop()
	return core.NewDetectorService(
		llm,
		cache,
		parser.New(logger),
		heuristic.Classify,
		heuristic.Indicators,
		prompt.Build,
		utils.NewTextProcessor(logger),
		logger,
		cache != nil,
		time.Hour,
		fallbackOnError,
		4096,
	)
}

func TestDetectShortTranscript(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(llm, nil, true)

	for _, transcript := range []string{"", "  ", "Hi", "  ab  "} {
		result, err := svc.Detect(context.Background(), transcript)
		require.NoError(t, err)

		assert.Equal(t, core.Legitimate, result.Classification)
		assert.Equal(t, 50.0, result.Confidence)
		assert.Equal(t, "Too short to analyze", result.Reasoning)
		assert.Equal(t, core.SourceTooShort, result.Source)
		assert.False(t, result.IsSpam)
		assert.Empty(t, result.ModelUsed, "no model ran for a short transcript")
	}

	assert.Zero(t, llm.calls, "short transcripts must not spend a model call")
}

func TestDetectStructuredResponse(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"classification": "MARKETING_SPAM", "confidence": 92, "reasoning": "aggressive sales tactics", "key_indicators": ["unsolicited offer"]}`,
	}}
	svc := newTestService(llm, nil, true)

	result, err := svc.Detect(context.Background(), "Buy our amazing product today, limited offer!")
	require.NoError(t, err)

	assert.Equal(t, core.MarketingSpam, result.Classification)
	assert.Equal(t, 92.0, result.Confidence)
	assert.True(t, result.IsSpam)
	assert.Equal(t, core.SourceModelStructured, result.Source)
	// Structured results keep the model's own indicators.
	assert.Equal(t, []string{"unsolicited offer"}, result.KeyIndicators)
	assert.Equal(t, "fake-model", result.ModelUsed)
	assert.NotEmpty(t, result.Timestamp)
	assert.NotEmpty(t, result.ProcessingID)
}

func TestIsSpamAlwaysDerivedFromClassification(t *testing.T) {
	// The raw text screams SPAM everywhere, but the structured payload says
	// legitimate: is_spam must follow the classification, nothing else.
	llm := &fakeLLM{responses: []string{
		`SPAM SPAM SPAM {"classification": "LEGITIMATE", "confidence": 80, "reasoning": "known contact"} SPAM`,
	}}
	svc := newTestService(llm, nil, true)

	result, err := svc.Detect(context.Background(), "Hey, it's your neighbor about the fence")
	require.NoError(t, err)

	assert.Equal(t, core.Legitimate, result.Classification)
	assert.False(t, result.IsSpam)
}

func TestDetectTransportFailureFallsBack(t *testing.T) {
	llm := &fakeLLM{failOn: map[int]bool{1: true}}
	svc := newTestService(llm, nil, true)

	result, err := svc.Detect(context.Background(), "Your car warranty is about to expire, press 1 to renew")
	require.NoError(t, err)

	assert.Equal(t, core.SourceDeterministicFallback, result.Source)
	assert.Equal(t, core.MarketingSpam, result.Classification)
	assert.Equal(t, 95.0, result.Confidence)
	assert.True(t, result.IsSpam)
	assert.Contains(t, result.Reasoning, "fallback")
}

func TestDetectTransportFailureSurfaced(t *testing.T) {
	llm := &fakeLLM{failOn: map[int]bool{1: true}}
	svc := newTestService(llm, nil, false)

	result, err := svc.Detect(context.Background(), "Hello, this is a normal call transcript")

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestDetectLexicalResponseGetsEnriched(t *testing.T) {
	llm := &fakeLLM{responses: []string{"LEGITIMATE"}}
	svc := newTestService(llm, nil, true)

	result, err := svc.Detect(context.Background(), "Hi mom, checking in")
	require.NoError(t, err)

	assert.Equal(t, core.Legitimate, result.Classification)
	assert.Equal(t, core.SourceModelFallbackParse, result.Source)
	// Word-level results get indicators from the transcript's lexical cues.
	assert.Contains(t, result.KeyIndicators, "family contact")
}

func TestDetectRoundTripKnownTranscript(t *testing.T) {
	transcript := "Hi mom, checking in"
	p := prompt.Build(transcript)
	assert.Contains(t, p, transcript)

	llm := &fakeLLM{responses: []string{
		`{"classification": "LEGITIMATE", "confidence": 89, "reasoning": "family call", "key_indicators": ["known contact call"]}`,
	}}
	svc := newTestService(llm, nil, true)

	result, err := svc.Detect(context.Background(), transcript)
	require.NoError(t, err)

	assert.Equal(t, core.Legitimate, result.Classification)
	assert.Equal(t, 89.0, result.Confidence)
	assert.NotEmpty(t, result.KeyIndicators)
	assert.Equal(t, transcript, result.TranscriptPreview)
}

func TestDetectBatchRecordsErrorsInPlace(t *testing.T) {
	llm := &fakeLLM{
		responses: []string{
			`{"classification": "MARKETING_SPAM", "confidence": 90, "reasoning": "sales pitch"}`,
			`{"classification": "LEGITIMATE", "confidence": 85, "reasoning": "delivery notice"}`,
		},
		failOn: map[int]bool{2: true},
	}
	svc := newTestService(llm, nil, false)

	results := svc.DetectBatch(context.Background(), []string{
		"Exclusive offer just for you, act now!",
		"Hello there, returning your call",
		"This is Mike from FedEx about a package delivery",
	})

	require.Len(t, results, 3)

	assert.Equal(t, core.MarketingSpam, results[0].Classification)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, core.SourceError, results[1].Source)
	assert.NotEmpty(t, results[1].Error)
	assert.False(t, results[1].IsSpam)
	assert.Equal(t, 0.0, results[1].Confidence)
	assert.Empty(t, results[1].ModelUsed, "no model result backs an error record")

	assert.Equal(t, core.Legitimate, results[2].Classification)
	assert.Empty(t, results[2].Error)
}

func TestDetectBatchPreservesOrderAndLength(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"classification": "LEGITIMATE", "confidence": 80, "reasoning": "fine"}`,
	}}
	svc := newTestService(llm, nil, true)

	transcripts := []string{
		"first transcript about an appointment",
		"second transcript about a prize you won",
		"third transcript from a known contact",
	}
	results := svc.DetectBatch(context.Background(), transcripts)

	require.Len(t, results, len(transcripts))
	for i, result := range results {
		assert.Contains(t, transcripts[i], result.TranscriptPreview)
	}
}

func TestDetectUsesCache(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"classification": "MARKETING_SPAM", "confidence": 91, "reasoning": "scam call"}`,
	}}
	cache := newMemoryCacheStub()
	svc := newTestService(llm, cache, true)

	transcript := "Congratulations, you won a free cruise, press 1 now"

	first, err := svc.Detect(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, core.SourceModelStructured, first.Source)

	second, err := svc.Detect(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, core.SourceCache, second.Source)
	assert.Equal(t, first.Classification, second.Classification)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, "cache", second.ModelUsed)

	assert.Equal(t, 1, llm.calls, "second detection must be served from cache")
}

func TestPreviewTruncationKeepsValidUTF8(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"classification": "LEGITIMATE", "confidence": 80, "reasoning": "ordinary call"}`,
	}}
	svc := newTestService(llm, nil, true)

	// 149 ASCII bytes put the first byte of the two-byte "é" exactly on the
	// preview cut, so a byte slice would split the rune.
	transcript := strings.Repeat("a", 149) + "éllo, this tail pushes the transcript well past the preview limit"

	result, err := svc.Detect(context.Background(), transcript)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(result.TranscriptPreview))
	assert.True(t, strings.HasSuffix(result.TranscriptPreview, "..."))
	assert.Equal(t, strings.Repeat("a", 149)+"...", result.TranscriptPreview)
}
