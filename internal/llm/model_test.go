package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/raphaelgruber/journeys/internal/metrics"
	"github.com/tmc/langchaingo/llms"
)

func TestIsFatalAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"credit balance", errors.New("insufficient credit balance"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"quota exceeded", errors.New("quota exceeded for model"), true},
		{"billing issue", errors.New("billing account inactive"), true},
		{"invalid api key", errors.New("invalid api key"), true},
		{"authentication failed", errors.New("authentication failed"), true},
		{"unauthorized", errors.New("unauthorized request"), true},
		{"401 status", errors.New("HTTP 401: not allowed"), true},
		{"403 status", errors.New("HTTP 403: forbidden"), true},
		{"wrapped error", fmt.Errorf("generate: %w", errors.New("credit balance too low")), true},
		{"404 not fatal", errors.New("HTTP 404: not found"), false},
		{"timeout not fatal", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isFatalAPIError(tt.err)
			if got != tt.fatal {
				t.Errorf("isFatalAPIError(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

func TestWrapFatalError(t *testing.T) {
	t.Run("wraps fatal error", func(t *testing.T) {
		err := errors.New("invalid api key provided")
		wrapped := wrapFatalError(err)
		if !errors.Is(wrapped, ErrFatalAPI) {
			t.Errorf("expected wrapped error to match ErrFatalAPI")
		}
	})

	t.Run("passes through non-fatal error", func(t *testing.T) {
		err := errors.New("network timeout")
		result := wrapFatalError(err)
		if errors.Is(result, ErrFatalAPI) {
			t.Errorf("non-fatal error should not be wrapped with ErrFatalAPI")
		}
		if result != err {
			t.Errorf("expected original error returned, got %v", result)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		result := wrapFatalError(nil)
		if result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})
}

type fakeLLM struct {
	responses []string
	err       error
	prompts   []string
	info      map[string]any
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	last := messages[len(messages)-1]
	if tp, ok := last.Parts[0].(llms.TextContent); ok {
		f.prompts = append(f.prompts, tp.Text)
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	out := f.responses[0]
	f.responses = f.responses[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: out, GenerationInfo: f.info}}}, nil
}

func TestGenerateRecordsUsage(t *testing.T) {
	mc := metrics.NewCollector(prometheus.NewRegistry())
	fake := &fakeLLM{
		responses: []string{"hello"},
		info:      map[string]any{"PromptTokens": 12, "CompletionTokens": float64(3)},
	}
	m := NewModelWith(fake, "fake", nil, mc)

	got, err := m.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "hello" {
		t.Errorf("Generate = %q, want hello", got)
	}
	snap := mc.Snapshot().LLMGenerate
	if snap == nil || snap.Count != 1 {
		t.Fatalf("llm snapshot = %+v, want one call", snap)
	}
	if snap.TotalInputTokens == nil || *snap.TotalInputTokens != 12 || *snap.TotalOutputTokens != 3 {
		t.Errorf("token snapshot = %+v, want 12 in / 3 out", snap)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	m := NewModelWith(&fakeLLM{}, "fake", nil, nil)
	if _, err := m.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
