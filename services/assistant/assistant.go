// Package assistant proxies learner questions to an OpenAI-compatible chat
// completions endpoint behind a fixed tutoring prompt.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ruralearn/logger"

	"github.com/go-resty/resty/v2"
)

const SystemPrompt = "You are an educational AI assistant for RuraLearn, a platform that bridges the gap between urban and rural education in Africa. " +
	"You help students with their coursework, explain concepts, and provide learning resources. " +
	"Be friendly, encouraging, and adapt your explanations to different learning levels."

const maxHistory = 20

var (
	ErrNotConfigured = errors.New("the learning assistant is not configured")
	ErrEmptyMessages = errors.New("at least one user message is required")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Service struct {
	client *resty.Client
	model  string
	log    *logger.Logger
	ready  bool
}

func New(cfg Config, baseLog *logger.Logger) *Service {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Service{
		client: client,
		model:  cfg.Model,
		log:    baseLog.With("service", "assistant"),
		ready:  cfg.BaseURL != "" && cfg.APIKey != "",
	}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat sends the conversation and returns the assistant's reply. Only user and
// assistant turns from the caller are forwarded, the latest maxHistory of them.
func (s *Service) Chat(ctx context.Context, history []Message) (string, error) {
	if !s.ready {
		return "", ErrNotConfigured
	}

	turns := make([]Message, 0, len(history))
	hasUser := false
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		content := strings.TrimSpace(m.Content)
		if content == "" || (role != "user" && role != "assistant") {
			continue
		}
		if role == "user" {
			hasUser = true
		}
		turns = append(turns, Message{Role: role, Content: content})
	}
	if !hasUser {
		return "", ErrEmptyMessages
	}
	if len(turns) > maxHistory {
		turns = turns[len(turns)-maxHistory:]
	}

	body := completionRequest{
		Model:    s.model,
		Messages: append([]Message{{Role: "system", Content: SystemPrompt}}, turns...),
	}

	var out completionResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		s.log.Warn("assistant upstream error", "status", resp.StatusCode(), "message", msg)
		return "", fmt.Errorf("assistant upstream error: %s", msg)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("assistant returned an empty reply")
	}
	return out.Choices[0].Message.Content, nil
}
