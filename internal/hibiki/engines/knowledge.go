package engines

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bdobrica/Hibiki/common/retry"
)

const defaultKnowledgeBase = "http://api.wolframalpha.com/v1"

// KnowledgeConfig configures the short-answer client.
type KnowledgeConfig struct {
	AppID   string
	BaseURL string
	Timeout time.Duration
}

// KnowledgeClient answers factual and math questions via the
// WolframAlpha short-answers endpoint. The endpoint returns a plain-text
// sentence, not JSON.
type KnowledgeClient struct {
	cfg    KnowledgeConfig
	client *http.Client
}

// NewKnowledge returns a KnowledgeClient. Safe for concurrent use.
func NewKnowledge(cfg KnowledgeConfig) *KnowledgeClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultKnowledgeBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &KnowledgeClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Answer returns a one-line factual answer for the question.
// An empty or branding-only response counts as unavailable so the
// caller can fall through to another answer source.
func (c *KnowledgeClient) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("engines: knowledge needs a question")
	}

	u := fmt.Sprintf("%s/result?appid=%s&i=%s",
		c.cfg.BaseURL, url.QueryEscape(c.cfg.AppID), url.QueryEscape(question))

	var body []byte
	err := retry.Do(ctx, retry.DefaultConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: knowledge status %d", ErrUnavailable, resp.StatusCode)
		}
		body, err = readBody(resp)
		return err
	})
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(string(body))
	if answer == "" || strings.Contains(answer, "Wolfram|Alpha") {
		return "", fmt.Errorf("%w: no short answer", ErrUnavailable)
	}
	return answer, nil
}
