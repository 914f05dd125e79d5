package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bdobrica/Hibiki/common/retry"
)

const defaultWeatherBase = "http://api.weatherapi.com/v1"

// WeatherConfig configures the current-conditions client.
type WeatherConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Weather is the current conditions for one city.
type Weather struct {
	City      string
	Condition string
	TempC     float64
}

// WeatherClient fetches current conditions from a WeatherAPI-compatible
// endpoint.
type WeatherClient struct {
	cfg    WeatherConfig
	client *http.Client
}

// NewWeather returns a WeatherClient. Safe for concurrent use.
func NewWeather(cfg WeatherConfig) *WeatherClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultWeatherBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &WeatherClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type weatherResponse struct {
	Current struct {
		TempC     float64 `json:"temp_c"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// Current returns conditions for the given city.
func (c *WeatherClient) Current(ctx context.Context, city string) (Weather, error) {
	if city == "" {
		return Weather{}, fmt.Errorf("engines: weather needs a city")
	}

	u := fmt.Sprintf("%s/current.json?key=%s&q=%s&aqi=no",
		c.cfg.BaseURL, url.QueryEscape(c.cfg.APIKey), url.QueryEscape(city))

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
			return fmt.Errorf("%w: weather status %d", ErrUnavailable, resp.StatusCode)
		}
		body, err = readBody(resp)
		return err
	})
	if err != nil {
		return Weather{}, err
	}

	var wr weatherResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return Weather{}, fmt.Errorf("engines: decode weather response: %w", err)
	}

	return Weather{
		City:      city,
		Condition: wr.Current.Condition.Text,
		TempC:     wr.Current.TempC,
	}, nil
}
