package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/bdobrica/Hibiki/common/retry"
)

const defaultCalorieBase = "https://trackapi.nutritionix.com/v2"

// CalorieConfig configures the nutrition client.
type CalorieConfig struct {
	AppID   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// CalorieInfo is the calorie count for one food item.
type CalorieInfo struct {
	Food     string
	Calories int
}

// CalorieClient resolves natural-language food queries against a
// Nutritionix-compatible endpoint.
type CalorieClient struct {
	cfg    CalorieConfig
	client *http.Client
}

// NewCalorie returns a CalorieClient. Safe for concurrent use.
func NewCalorie(cfg CalorieConfig) *CalorieClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCalorieBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &CalorieClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type nutrientsResponse struct {
	Foods []struct {
		FoodName string  `json:"food_name"`
		Calories float64 `json:"nf_calories"`
	} `json:"foods"`
}

// Lookup returns the calorie count for a food phrase ("two eggs").
func (c *CalorieClient) Lookup(ctx context.Context, food string) (CalorieInfo, error) {
	food = strings.TrimSpace(food)
	if food == "" {
		return CalorieInfo{}, fmt.Errorf("engines: calorie lookup needs a food item")
	}

	payload, err := json.Marshal(map[string]string{"query": food})
	if err != nil {
		return CalorieInfo{}, fmt.Errorf("engines: encode calorie query: %w", err)
	}

	u := c.cfg.BaseURL + "/natural/nutrients"

	var body []byte
	err = retry.Do(ctx, retry.DefaultConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("x-app-id", c.cfg.AppID)
		req.Header.Set("x-app-key", c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: calorie status %d", ErrUnavailable, resp.StatusCode)
		}
		body, err = readBody(resp)
		return err
	})
	if err != nil {
		return CalorieInfo{}, err
	}

	var nr nutrientsResponse
	if err := json.Unmarshal(body, &nr); err != nil {
		return CalorieInfo{}, fmt.Errorf("engines: decode calorie response: %w", err)
	}
	if len(nr.Foods) == 0 {
		return CalorieInfo{}, fmt.Errorf("%w: food not found", ErrUnavailable)
	}

	first := nr.Foods[0]
	name := first.FoodName
	if name == "" {
		name = food
	}
	return CalorieInfo{
		Food:     name,
		Calories: int(math.Round(first.Calories)),
	}, nil
}
