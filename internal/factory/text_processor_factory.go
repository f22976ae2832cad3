package factory

import (
	"github.com/mikey/llm-call-filter/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory builds the transcript text processor used to prepare
// transcripts before prompting.
type TextProcessorFactory struct {
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		logger: logger,
	}
}

// CreateTextProcessor creates a transcript text processor.
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}
