package core

import (
	"context"
)

// LLMClient is the transport to a language model backend. It takes a fully
// built prompt and returns the raw, uninterpreted response text.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelID identifies the backing model for result metadata.
	ModelID() string
}

// CacheRepository caches classification results by transcript hash.
type CacheRepository interface {
	Get(ctx context.Context, transcriptHash string) (*CacheEntry, error)
	Set(ctx context.Context, entry *CacheEntry) error
	Delete(ctx context.Context, transcriptHash string) error
	Cleanup(ctx context.Context) error
}
