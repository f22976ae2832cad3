package di

import (
	"flag"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-call-filter/internal/adapters/filter"
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

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64

	// Ollama flags
	OllamaURL       string
	OllamaModelName string
	OllamaTimeout   time.Duration

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Detection flags
	SurfaceErrors     bool
	MaxTranscriptSize int

	// Input flags
	Transcript string
	InputFile  string
	BatchFile  string
	Verbose    bool
	JSONLog    bool
	JSONOut    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "ollama", "LLM provider (ollama, bedrock, gemini, openai)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")

	// Ollama flags
	flag.StringVar(&flags.OllamaURL, "ollama-url", "http://localhost:11434", "URL of the Ollama API server")
	flag.StringVar(&flags.OllamaModelName, "ollama-model", "gemma3:1b", "Ollama model name")
	flag.DurationVar(&flags.OllamaTimeout, "ollama-timeout", 60*time.Second, "Timeout for Ollama requests")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Detection flags
	flag.BoolVar(&flags.SurfaceErrors, "surface-errors", false, "Fail on model errors instead of using the deterministic fallback")
	flag.IntVar(&flags.MaxTranscriptSize, "max-transcript-size", 4096, "Maximum transcript size to send to the LLM")

	// Input flags
	flag.StringVar(&flags.Transcript, "transcript", "", "Call transcript text to analyze")
	flag.StringVar(&flags.InputFile, "file", "", "Path to file containing a transcript (use stdin if nothing else specified)")
	flag.StringVar(&flags.BatchFile, "batch-file", "", "Path to file with one transcript per line")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.BoolVar(&flags.JSONOut, "json", false, "Print results as JSON instead of formatted text")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register LLM factory
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register detector service with no cache
	if err := container.Provide(func(
		llmClient core.LLMClient,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.DetectorService {
		return core.NewDetectorService(
			llmClient,
			nil, // No cache for CLI
			parser.New(logger),
			heuristic.Classify,
			heuristic.Indicators,
			prompt.Build,
			utils.NewTextProcessor(logger),
			logger,
			false,            // Cache disabled
			time.Duration(0), // No TTL
			cfg.GetBool("detector.fallback_on_error"),
			cfg.GetInt("detector.max_transcript_size"),
		)
	}); err != nil {
		return nil, err
	}

	// Register call filter
	if err := container.Provide(func(service *core.DetectorService, logger *zap.Logger, flags *CLIFlags) (ports.CallFilter, error) {
		return filter.NewCliFilter(service, logger, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)

	// Set LLM provider
	v.Set("llm.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "ollama":
		v.Set("ollama.url", flags.OllamaURL)
		v.Set("ollama.model_name", flags.OllamaModelName)
		v.Set("ollama.temperature", flags.Temperature)
		v.Set("ollama.timeout", flags.OllamaTimeout.String())
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	// Set detection policy
	v.Set("detector.fallback_on_error", !flags.SurfaceErrors)
	v.Set("detector.max_transcript_size", flags.MaxTranscriptSize)

	return config.NewFromViper(v)
}
