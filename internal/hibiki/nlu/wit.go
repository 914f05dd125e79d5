package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bdobrica/Hibiki/common/retry"
	"github.com/bdobrica/Hibiki/internal/hibiki/entity"
)

const (
	defaultWitBase    = "https://api.wit.ai"
	defaultWitVersion = "20230228"
	defaultTimeout    = 5 * time.Second
)

// WitConfig configures the Wit.ai-compatible classifier client.
type WitConfig struct {
	// Token is the server access token sent as the Authorization header.
	Token string

	// BaseURL overrides the API endpoint, for self-hosted compatible
	// services and tests.  Defaults to https://api.wit.ai when empty.
	BaseURL string

	// Version is the API version date parameter.  Defaults to 20230228.
	Version string

	// Timeout is the per-request HTTP timeout.  Defaults to 5 s; the
	// dialogue turn must not hang on a slow classifier.
	Timeout time.Duration
}

// witClassifier implements Classifier against the Wit.ai message API.
type witClassifier struct {
	cfg    WitConfig
	client *http.Client
}

// NewWit returns a Classifier backed by the Wit.ai message endpoint.
// Safe for concurrent use.
func NewWit(cfg WitConfig) Classifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultWitBase
	}
	if cfg.Version == "" {
		cfg.Version = defaultWitVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &witClassifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal Wit wire types ---

type witIntent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type witEntity struct {
	Value      any     `json:"value"`
	Body       string  `json:"body"`
	Confidence float64 `json:"confidence"`
}

type witResponse struct {
	Intents  []witIntent            `json:"intents"`
	Entities map[string][]witEntity `json:"entities"`
}

// Classify calls the message endpoint and maps the first (highest
// confidence) intent onto a Result.  A response without intents is a
// valid "no intent" outcome, not an error.
func (w *witClassifier) Classify(ctx context.Context, text string) (Result, error) {
	if text == "" {
		return None, nil
	}

	u := fmt.Sprintf("%s/message?v=%s&q=%s", w.cfg.BaseURL, w.cfg.Version, url.QueryEscape(text))

	var body []byte
	err := retry.Do(ctx, retry.DefaultConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+w.cfg.Token)

		resp, err := w.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return err
	})
	if err != nil {
		return None, err
	}

	var wr witResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return None, fmt.Errorf("nlu: decode wit response: %w", err)
	}

	out := Result{Entities: mapEntities(wr.Entities)}
	if len(wr.Intents) > 0 {
		out.Label = wr.Intents[0].Name
		out.Confidence = wr.Intents[0].Confidence
	}
	return out, nil
}

// mapEntities converts the wire entity map into the typed bag, keeping
// per-kind arrival order.
func mapEntities(raw map[string][]witEntity) entity.Bag {
	if len(raw) == 0 {
		return nil
	}
	bag := make(entity.Bag, len(raw))
	for kind, vals := range raw {
		out := make([]entity.Value, 0, len(vals))
		for _, v := range vals {
			out = append(out, entity.Value{
				Value:      stringify(v.Value),
				Body:       v.Body,
				Confidence: v.Confidence,
			})
		}
		bag[kind] = out
	}
	return bag
}

// stringify flattens the polymorphic wit "value" field; datetime
// entities sometimes carry objects with a nested "value".
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case map[string]any:
		if s, ok := t["value"].(string); ok {
			return s
		}
	}
	return ""
}
