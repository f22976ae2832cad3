package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-call-filter/internal/config"
	"github.com/mikey/llm-call-filter/internal/core"
	"github.com/mikey/llm-call-filter/internal/factory"
	"github.com/mikey/llm-call-filter/internal/heuristic"
	"github.com/mikey/llm-call-filter/internal/logging"
	"github.com/mikey/llm-call-filter/internal/parser"
	"github.com/mikey/llm-call-filter/internal/ports"
	"github.com/mikey/llm-call-filter/internal/prompt"
	"github.com/mikey/llm-call-filter/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register detector service
	if err := container.Provide(func(
		llmClient core.LLMClient,
		cacheRepo core.CacheRepository,
		textProcessor *utils.TextProcessor,
		cacheFactory *factory.CacheFactory,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.DetectorService, error) {
		cacheTTL, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, err
		}
		return core.NewDetectorService(
			llmClient,
			cacheRepo,
			parser.New(logger),
			heuristic.Classify,
			heuristic.Indicators,
			prompt.Build,
			textProcessor,
			logger,
			cacheFactory.IsCacheEnabled(),
			cacheTTL,
			cfg.GetBool("detector.fallback_on_error"),
			cfg.GetInt("detector.max_transcript_size"),
		), nil
	}); err != nil {
		return nil, err
	}

	// Register call filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.CallFilter, error) {
		return f.CreateCallFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
