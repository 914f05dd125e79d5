package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bdobrica/Hibiki/common/retry"
)

const (
	defaultNewsBase  = "https://newsapi.org/v2"
	defaultNewsCount = 3
)

// countryCodes maps spoken country names onto the ISO-2 codes the
// headlines API expects.
var countryCodes = map[string]string{
	"nigeria":        "ng",
	"united kingdom": "gb",
	"uk":             "gb",
	"us":             "us",
	"usa":            "us",
	"canada":         "ca",
	"germany":        "de",
	"france":         "fr",
	"india":          "in",
	"australia":      "au",
}

// NewsConfig configures the headlines client.
type NewsConfig struct {
	APIKey  string
	BaseURL string
	Count   int
	Timeout time.Duration
}

// Headline is one news item.
type Headline struct {
	Title  string
	Source string
}

// NewsClient fetches top headlines from a NewsAPI-compatible endpoint.
type NewsClient struct {
	cfg    NewsConfig
	client *http.Client
}

// NewNews returns a NewsClient. Safe for concurrent use.
func NewNews(cfg NewsConfig) *NewsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultNewsBase
	}
	if cfg.Count <= 0 {
		cfg.Count = defaultNewsCount
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &NewsClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type newsResponse struct {
	Articles []struct {
		Title  string `json:"title"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// NormalizeCountry accepts a country name or ISO-2 code and returns the
// code the API expects, defaulting to "us".
func NormalizeCountry(country string) string {
	c := strings.ToLower(strings.TrimSpace(country))
	if code, ok := countryCodes[c]; ok {
		return code
	}
	if len(c) == 2 {
		return c
	}
	return "us"
}

// TopHeadlines returns up to Count headlines for the given country.
func (c *NewsClient) TopHeadlines(ctx context.Context, country string) ([]Headline, error) {
	code := NormalizeCountry(country)

	u := fmt.Sprintf("%s/top-headlines?apiKey=%s&country=%s&pageSize=%d",
		c.cfg.BaseURL, url.QueryEscape(c.cfg.APIKey), code, c.cfg.Count)

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
			return fmt.Errorf("%w: news status %d", ErrUnavailable, resp.StatusCode)
		}
		body, err = readBody(resp)
		return err
	})
	if err != nil {
		return nil, err
	}

	var nr newsResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return nil, fmt.Errorf("engines: decode news response: %w", err)
	}

	headlines := make([]Headline, 0, len(nr.Articles))
	for _, a := range nr.Articles {
		source := a.Source.Name
		if source == "" {
			source = "Unknown"
		}
		headlines = append(headlines, Headline{Title: a.Title, Source: source})
	}
	return headlines, nil
}
