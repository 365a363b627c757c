// Package llm talks to the reasoning endpoint through langchaingo.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/journeys/internal/config"
	"github.com/raphaelgruber/journeys/internal/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Model wraps a langchaingo LLM for text generation.
type Model struct {
	llm       llms.Model
	modelName string
	log       *slog.Logger
	metrics   *metrics.Collector
}

// NewModel creates an LLM model based on configuration.
func NewModel(ctx context.Context, cfg config.Config, log *slog.Logger, mc *metrics.Collector) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		model, err = bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return NewModelWith(model, cfg.LLMModel, log, mc), nil
}

// NewModelWith wraps an already constructed langchaingo model.
func NewModelWith(model llms.Model, name string, log *slog.Logger, mc *metrics.Collector) *Model {
	if log == nil {
		log = slog.Default()
	}
	return &Model{llm: model, modelName: name, log: log, metrics: mc}
}

// Generate generates text based on a prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	return m.GenerateWithSystem(ctx, "", prompt)
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages)
	duration := time.Since(start)
	if err != nil {
		m.metrics.RecordError(metrics.OpLLMGenerate)
		m.log.Warn("llm generate failed", "model", m.modelName, "duration_ms", duration.Milliseconds(), "error", err)
		return "", fmt.Errorf("generate with system: %w", wrapFatalError(err))
	}
	if len(response.Choices) == 0 {
		m.metrics.RecordError(metrics.OpLLMGenerate)
		return "", errors.New("no response choices")
	}

	choice := response.Choices[0]
	in, out := tokenUsage(choice.GenerationInfo)
	m.metrics.RecordLLMUsage(metrics.OpLLMGenerate, duration, in, out)
	m.log.Debug("llm generate complete", "model", m.modelName, "duration_ms", duration.Milliseconds(), "input_tokens", in, "output_tokens", out)
	return choice.Content, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// tokenUsage reads token counts from provider generation info. Providers
// disagree on key names.
func tokenUsage(info map[string]any) (in, out int64) {
	in = firstInt(info, "PromptTokens", "InputTokens", "input_tokens")
	out = firstInt(info, "CompletionTokens", "OutputTokens", "output_tokens")
	return in, out
}

func firstInt(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
