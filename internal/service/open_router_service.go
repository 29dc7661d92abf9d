package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/teambuilder/internal/config"
	"github.com/fadilmartias/teambuilder/internal/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const interviewerSystemPrompt = "You are a friendly technical interviewer. You always answer with a single JSON object and nothing else."

// OpenRouterService is the OpenRouter chat-completions interview oracle.
type OpenRouterService struct {
	APIKey string
	Model  string
	client *resty.Client
	logger *zap.Logger
}

func NewOpenRouterService(timeout time.Duration, log *zap.Logger) (*OpenRouterService, error) {
	cfg := config.LoadOpenRouterConfig()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not set")
	}
	return newOpenRouterService(cfg.BaseURL, cfg.APIKey, cfg.Model, timeout, log), nil
}

func newOpenRouterService(baseURL, apiKey, model string, timeout time.Duration, log *zap.Logger) *OpenRouterService {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &OpenRouterService{
		APIKey: apiKey,
		Model:  model,
		client: client,
		logger: logger.WithCommonFields(log, "openrouter", model),
	}
}

// Complete sends one interview prompt and returns the raw reply text.
func (s *OpenRouterService) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	s.logger.Debug("openrouter request",
		zap.Int("prompt_length", len(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, maxLogLength)),
	)

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"model": s.Model,
			"messages": []map[string]string{
				{"role": "system", "content": interviewerSystemPrompt},
				{"role": "user", "content": prompt},
			},
			"response_format": map[string]string{"type": "json_object"},
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("openrouter returned %d: %s", resp.StatusCode(), logger.TruncateForLog(resp.String(), maxLogLength))
	}

	body := resp.String()
	if msg := gjson.Get(body, "error.message"); msg.Exists() {
		return "", fmt.Errorf("openrouter error: %s", msg.String())
	}

	text := strings.TrimSpace(gjson.Get(body, "choices.0.message.content").String())
	if text == "" {
		return "", fmt.Errorf("no response from LLM")
	}

	s.logger.Debug("openrouter reply",
		zap.Int("response_length", len(text)),
		zap.String("response_preview", logger.TruncateForLog(text, maxLogLength)),
	)
	return text, nil
}
