// Package generic provides the open-domain fallback responder: when no
// structured intent can be resolved, the utterance is handed to an
// OpenAI-compatible chat endpoint for a free-form answer.  A per-session
// rate limiter keeps the terminal fallback from becoming a token sink.
package generic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBase    = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 15 * time.Second
)

// systemPrompt is the assistant persona for open-domain answers.  The
// structured capabilities are handled before this path is reached, so
// the prompt steers the model toward short conversational replies and
// back toward the built-in features for actionable requests.
const systemPrompt = `You are Hibiki, a friendly voice assistant. You are NOT a generic chatbot; you help with weather, time, reminders, shopping lists, and fun trivia. You speak in short, conversational sentences, without special punctuation. Answer open-ended questions briefly and with empathy. If the user sounds lonely or sad, say something kind and ask if they want to talk or hear a fun fact. For direct commands like weather, reminders, or shopping lists, suggest the matching built-in feature instead of answering yourself.`

// Responder answers free-form utterances.  Implementations must be safe
// for concurrent use.
type Responder interface {
	Answer(ctx context.Context, text string) (string, error)
}

// Config configures the OpenAI-compatible responder.
type Config struct {
	// APIKey is the bearer token used to authenticate against the API.
	APIKey string

	// BaseURL overrides the API endpoint.  Useful for local models or
	// any other OpenAI-compatible endpoint.  Defaults to
	// https://api.openai.com/v1 when empty.
	BaseURL string

	// Model is the chat model to use.  Defaults to gpt-4o-mini.
	Model string

	// Timeout is the HTTP request timeout.  Defaults to 15 s.
	Timeout time.Duration
}

type openAIResponder struct {
	cfg    Config
	client *http.Client
}

// New returns a Responder backed by the OpenAI (or compatible) chat API.
func New(cfg Config) Responder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &openAIResponder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal OpenAI wire types ---

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiRequest struct {
	Model     string       `json:"model"`
	Messages  []oaiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

type oaiResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Answer sends text to the chat endpoint and returns the model's reply.
func (r *openAIResponder) Answer(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(oaiRequest{
		Model: r.cfg.Model,
		Messages: []oaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens: 200,
	})
	if err != nil {
		return "", fmt.Errorf("generic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generic: call chat API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("generic: read response: %w", err)
	}

	var out oaiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("generic: decode response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("generic: API error: %s", out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(out.Choices) == 0 {
		return "", fmt.Errorf("generic: unexpected response (status %d)", resp.StatusCode)
	}

	answer := strings.TrimSpace(out.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("generic: empty completion")
	}
	return answer, nil
}
