package generator

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	"autopost/config"
)

const providerGoogle = "google"

// GeminiGenerator 는 Gemini API 로 본문을 생성한다.
type GeminiGenerator struct {
	client   *genai.Client
	defaults Options
}

// NewGeminiGenerator 는 GEMINI_API_KEY 로 클라이언트를 만든다. baseURL 은 테스트에서만 지정한다.
func NewGeminiGenerator(ctx context.Context, cfg config.GenerationConfig, baseURL string) (*GeminiGenerator, error) {
	if cfg.Provider != "" && cfg.Provider != providerGoogle {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		defaults: Options{
			Model:       cfg.ModelName,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
	}, nil
}

// Defaults 는 이 생성기에 설정된 옵션을 반환한다.
func (g *GeminiGenerator) Defaults() Options { return g.defaults }

func (g *GeminiGenerator) Generate(ctx context.Context, system, user string, opts Options) (*Generation, error) {
	startTime := time.Now()
	opts = g.merge(opts)

	gc := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       genai.Ptr(opts.Temperature),
		MaxOutputTokens:   opts.MaxTokens,
	}

	result, err := g.client.Models.GenerateContent(ctx, opts.Model, genai.Text(user), gc)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with %s: %w", opts.Model, err)
	}
	if result == nil {
		return nil, ErrEmptyResponse
	}

	raw := result.Text()
	gen := &Generation{
		Text:         Clean(raw),
		Raw:          raw,
		ModelName:    opts.Model,
		ModelVersion: result.ModelVersion,
		Latency:      time.Since(startTime),
	}
	if result.UsageMetadata != nil {
		gen.Usage = TokenUsage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
		}
	}
	return gen, nil
}

func (g *GeminiGenerator) merge(opts Options) Options {
	if opts.Model == "" {
		opts.Model = g.defaults.Model
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = g.defaults.MaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = g.defaults.Temperature
	}
	return opts
}
