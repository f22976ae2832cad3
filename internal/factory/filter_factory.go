package factory

import (
	"fmt"

	"github.com/mikey/llm-call-filter/internal/adapters/filter"
	"github.com/mikey/llm-call-filter/internal/config"
	"github.com/mikey/llm-call-filter/internal/core"
	"github.com/mikey/llm-call-filter/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates call filters based on configuration
type FilterFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	service   *core.DetectorService
	llmClient core.LLMClient
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.DetectorService, llmClient core.LLMClient) *FilterFactory {
	return &FilterFactory{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		llmClient: llmClient,
	}
}

// CreateCallFilter creates a call filter based on the configuration
func (f *FilterFactory) CreateCallFilter() (ports.CallFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "http":
		return filter.NewHTTPFilter(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.llmClient.ModelID(),
		)
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
