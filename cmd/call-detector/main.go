package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/llm-call-filter/internal/adapters/filter"
	"github.com/mikey/llm-call-filter/internal/adapters/ollama"
	"github.com/mikey/llm-call-filter/internal/core"
	"github.com/mikey/llm-call-filter/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, service *core.DetectorService, llmClient core.LLMClient) error {
		defer logger.Sync()
		return run(flags, logger, service, llmClient)
	}); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, service *core.DetectorService, llmClient core.LLMClient) error {
	ctx := context.Background()

	// Probe Ollama connectivity up front so a dead backend is reported
	// before any transcript is read.
	if client, ok := llmClient.(*ollama.OllamaClient); ok {
		if err := client.Ping(ctx); err != nil {
			logger.Warn("Ollama server unreachable, model calls will fall back", zap.Error(err))
		}
	}

	// Batch mode: one transcript per line.
	if flags.BatchFile != "" {
		transcripts, err := readBatchFile(flags.BatchFile)
		if err != nil {
			return err
		}

		logger.Info("Processing batch", zap.Int("count", len(transcripts)))
		results := service.DetectBatch(ctx, transcripts)

		if flags.JSONOut {
			return printJSON(results)
		}
		for i, result := range results {
			fmt.Printf("\n=== Transcript %d/%d ===\n", i+1, len(results))
			if result.Error != "" {
				fmt.Printf("Error: %s\n", result.Error)
				continue
			}
			filter.RenderResult(result)
		}
		return nil
	}

	// Single transcript from flag, file, or stdin.
	transcript, err := readTranscript(flags, logger)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return fmt.Errorf("no transcript provided: use -transcript, -file, -batch-file or stdin")
	}

	result, err := service.Detect(ctx, transcript)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if flags.JSONOut {
		return printJSON(result)
	}
	filter.RenderResult(result)
	return nil
}

// readTranscript resolves the transcript from the highest-priority input
// source that is set.
func readTranscript(flags *di.CLIFlags, logger *zap.Logger) (string, error) {
	if flags.Transcript != "" {
		return flags.Transcript, nil
	}

	if flags.InputFile != "" {
		data, err := os.ReadFile(flags.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read transcript file: %w", err)
		}
		logger.Info("Read transcript from file", zap.String("file", flags.InputFile))
		return string(data), nil
	}

	logger.Info("Reading transcript from stdin")
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript from stdin: %w", err)
	}
	return string(data), nil
}

// readBatchFile reads one transcript per non-empty line.
func readBatchFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	var transcripts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			transcripts = append(transcripts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return transcripts, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
