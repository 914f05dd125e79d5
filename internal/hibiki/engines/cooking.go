package engines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bdobrica/Hibiki/common/retry"
)

const (
	defaultCookingBase     = "https://api.spoonacular.com"
	defaultSuggestionCount = 3
)

// ErrQuotaExceeded means the recipe API's daily request quota ran out.
var ErrQuotaExceeded = fmt.Errorf("%w: daily quota exceeded", ErrUnavailable)

// CookingConfig configures the recipe client.
type CookingConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Recipe is one recipe with its preparation instructions.
type Recipe struct {
	Title        string
	Instructions string
}

// CookingClient looks up recipes by dish name or by available
// ingredients against a Spoonacular-compatible endpoint.
type CookingClient struct {
	cfg    CookingConfig
	client *http.Client
}

// NewCooking returns a CookingClient. Safe for concurrent use.
func NewCooking(cfg CookingConfig) *CookingClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCookingBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &CookingClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type recipeSearchResponse struct {
	Results []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	} `json:"results"`
}

type recipeInfoResponse struct {
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
}

type ingredientMatch struct {
	Title string `json:"title"`
}

// GetRecipe finds the best recipe for a dish and fetches its
// instructions. The instructions may be empty when the upstream entry
// has none.
func (c *CookingClient) GetRecipe(ctx context.Context, dish string) (Recipe, error) {
	dish = strings.TrimSpace(dish)
	if dish == "" {
		return Recipe{}, fmt.Errorf("engines: recipe lookup needs a dish name")
	}

	searchURL := fmt.Sprintf("%s/recipes/complexSearch?query=%s&number=1&apiKey=%s",
		c.cfg.BaseURL, url.QueryEscape(dish), url.QueryEscape(c.cfg.APIKey))

	var search recipeSearchResponse
	if err := c.getJSON(ctx, searchURL, &search); err != nil {
		return Recipe{}, err
	}
	if len(search.Results) == 0 {
		return Recipe{}, fmt.Errorf("engines: no recipe found for %q", dish)
	}

	infoURL := fmt.Sprintf("%s/recipes/%d/information?includeNutrition=false&apiKey=%s",
		c.cfg.BaseURL, search.Results[0].ID, url.QueryEscape(c.cfg.APIKey))

	var info recipeInfoResponse
	if err := c.getJSON(ctx, infoURL, &info); err != nil {
		// The search already named a recipe; surface that much.
		return Recipe{Title: search.Results[0].Title}, err
	}

	title := info.Title
	if title == "" {
		title = search.Results[0].Title
	}
	return Recipe{
		Title:        title,
		Instructions: strings.TrimSpace(info.Instructions),
	}, nil
}

// SuggestRecipes returns up to three recipe titles that use the given
// ingredients ("eggs, cheese").
func (c *CookingClient) SuggestRecipes(ctx context.Context, ingredients string) ([]string, error) {
	ingredients = strings.ToLower(strings.TrimSpace(ingredients))
	if ingredients == "" {
		return nil, fmt.Errorf("engines: recipe suggestion needs ingredients")
	}

	u := fmt.Sprintf("%s/recipes/findByIngredients?ingredients=%s&number=%d&ranking=1&apiKey=%s",
		c.cfg.BaseURL, url.QueryEscape(ingredients), defaultSuggestionCount, url.QueryEscape(c.cfg.APIKey))

	var matches []ingredientMatch
	if err := c.getJSON(ctx, u, &matches); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Title != "" {
			titles = append(titles, m.Title)
		}
	}
	return titles, nil
}

func (c *CookingClient) getJSON(ctx context.Context, u string, out any) error {
	cfg := retry.DefaultConfig
	// A spent quota will not recover within a retry window.
	cfg.ShouldRetry = func(err error) bool { return !errors.Is(err, ErrQuotaExceeded) }

	var body []byte
	err := retry.Do(ctx, cfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusPaymentRequired:
			io.Copy(io.Discard, resp.Body)
			return ErrQuotaExceeded
		default:
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: cooking status %d", ErrUnavailable, resp.StatusCode)
		}

		body, err = readBody(resp)
		return err
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("engines: decode cooking response: %w", err)
	}
	return nil
}
