package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-call-filter/internal/core"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for call spam detection
type CliFilter struct {
	service *core.DetectorService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.DetectorService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessTranscript classifies a transcript and displays the result
func (f *CliFilter) ProcessTranscript(ctx context.Context, transcript string) (*core.DetectionResult, error) {
	f.logger.Debug("Processing transcript", zap.Int("length", len(transcript)))

	if f.verbose {
		preview := transcript
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nTranscript preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	startTime := time.Now()
	result, err := f.service.Detect(ctx, transcript)
	if err != nil {
		f.logger.Error("Failed to analyze transcript", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	RenderResult(result)
	fmt.Printf("Processing time: %v\n", duration)

	return result, nil
}

// RenderResult prints a detection result in a readable layout.
func RenderResult(result *core.DetectionResult) {
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Classification: %s\n", result.Classification)
	fmt.Printf("Confidence: %.0f%%\n", result.Confidence)
	fmt.Printf("Is spam: %t\n", result.IsSpam)
	if len(result.KeyIndicators) > 0 {
		fmt.Printf("Key indicators:\n")
		for _, indicator := range result.KeyIndicators {
			fmt.Printf("  - %s\n", indicator)
		}
	}
	fmt.Printf("Reasoning: %s\n", strings.TrimSpace(result.Reasoning))
	fmt.Printf("Source: %s\n", result.Source)
	fmt.Printf("Model used: %s\n", result.ModelUsed)

	if result.IsSpam {
		fmt.Printf("\nWARNING: This appears to be a MARKETING/SPAM call.\n")
	} else {
		fmt.Printf("\nThis appears to be a LEGITIMATE call.\n")
	}
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
