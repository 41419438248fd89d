package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"RigorScore/internal/config"
	"RigorScore/internal/domain"
	"RigorScore/internal/oracle"
	"RigorScore/internal/ports"
)

// OpenAIOracle implements ports.Oracle backed by OpenAI-compatible chat APIs.
type OpenAIOracle struct {
	client       *openai.Client
	model        string
	systemPrompt string
	temperature  float32
	limiter      *rate.Limiter
	logger       *slog.Logger
}

var _ ports.Oracle = (*OpenAIOracle)(nil)

// NewOpenAIOracle builds a client from configuration.
func NewOpenAIOracle(cfg config.OpenAIConfig, logger *slog.Logger) (*OpenAIOracle, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("openai oracle misconfigured: api key and model are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIOracle{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		temperature:  cfg.Temperature,
		limiter:      newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:       logger,
	}, nil
}

// Evaluate sends the rendered request and parses the JSON verdict from the reply.
func (o *OpenAIOracle) Evaluate(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return domain.Verdict{}, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: oracle.RenderRequest(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Verdict{}, fmt.Errorf("openai returned no choices")
	}

	o.logger.Debug("oracle reply", "task", req.Task, "finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens)

	verdict, err := oracle.ParseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("openai verdict: %w", err)
	}
	return verdict, nil
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a careful analyst who answers strictly in JSON."
	}
	return prompt
}
