package filter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-call-filter/internal/core"
	"github.com/mikey/llm-call-filter/internal/heuristic"
	"github.com/mikey/llm-call-filter/internal/parser"
	"github.com/mikey/llm-call-filter/internal/prompt"
	"github.com/mikey/llm-call-filter/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLLM struct {
	response string
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func (s *stubLLM) ModelID() string { return "stub-model" }

func newTestFilter(t *testing.T, response string) *HTTPFilter {
	t.Helper()
	logger := zap.NewNop()
	service := core.NewDetectorService(
		&stubLLM{response: response},
		nil,
		parser.New(logger),
		heuristic.Classify,
		heuristic.Indicators,
		prompt.Build,
		utils.NewTextProcessor(logger),
		logger,
		false,
		time.Hour,
		true,
		4096,
	)

	f, err := NewHTTPFilter(service, logger, "127.0.0.1:0", "stub-model")
	require.NoError(t, err)
	return f
}

func TestHTTPDetect(t *testing.T) {
	f := newTestFilter(t, `{"classification": "MARKETING_SPAM", "confidence": 90, "reasoning": "sales pitch", "key_indicators": ["cold call"]}`)
	router := f.Router()

	body := `{"transcript": "Act now for this exclusive limited time offer!"}`
	req := httptest.NewRequest(http.MethodPost, "/detect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result core.DetectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, core.MarketingSpam, result.Classification)
	assert.Equal(t, 90.0, result.Confidence)
	assert.True(t, result.IsSpam)
	assert.Equal(t, core.SourceModelStructured, result.Source)
}

func TestHTTPDetectEmptyTranscript(t *testing.T) {
	f := newTestFilter(t, "LEGITIMATE")
	router := f.Router()

	for _, body := range []string{`{"transcript": ""}`, `{"transcript": "   "}`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/detect", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestHTTPDetectMalformedBody(t *testing.T) {
	f := newTestFilter(t, "LEGITIMATE")
	router := f.Router()

	req := httptest.NewRequest(http.MethodPost, "/detect", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPDetectBatch(t *testing.T) {
	f := newTestFilter(t, `{"classification": "LEGITIMATE", "confidence": 82, "reasoning": "ordinary call"}`)
	router := f.Router()

	body := `{"transcripts": ["Hi, confirming your appointment tomorrow", "Hello, this is your doctor's office calling back"]}`
	req := httptest.NewRequest(http.MethodPost, "/detect/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp detectBatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	for _, result := range resp.Results {
		assert.Equal(t, core.Legitimate, result.Classification)
		assert.False(t, result.IsSpam)
	}
}

func TestHTTPDetectBatchEmptyList(t *testing.T) {
	f := newTestFilter(t, "LEGITIMATE")
	router := f.Router()

	req := httptest.NewRequest(http.MethodPost, "/detect/batch", strings.NewReader(`{"transcripts": []}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPHealth(t *testing.T) {
	f := newTestFilter(t, "LEGITIMATE")
	router := f.Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "stub-model", health["model"])
}
