package ports

import (
	"context"

	"github.com/mikey/llm-call-filter/internal/core"
)

// CallFilter is a serving surface over the detector service.
type CallFilter interface {
	// ProcessTranscript classifies a transcript and returns the result.
	ProcessTranscript(ctx context.Context, transcript string) (*core.DetectionResult, error)

	// Start starts the filter service.
	Start() error

	// Stop stops the filter service.
	Stop() error
}
