package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wellness/internal/domain"
	"wellness/internal/infra"
)

// CalorieNinjasOptions configures the CalorieNinjas client.
type CalorieNinjasOptions struct {
	Key        KeySource
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// CalorieNinjas looks up nutrition by food name.
type CalorieNinjas struct {
	key        KeySource
	baseURL    string
	httpClient *http.Client
	logger     infra.Logger
}

type calorieNinjasResponse struct {
	Items []struct {
		Name          string  `json:"name"`
		Calories      float64 `json:"calories"`
		Carbohydrates float64 `json:"carbohydrates_total_g"`
		Protein       float64 `json:"protein_g"`
		Fat           float64 `json:"fat_total_g"`
	} `json:"items"`
}

func NewCalorieNinjas(opts CalorieNinjasOptions) *CalorieNinjas {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.calorieninjas.com"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	key := opts.Key
	if key == nil {
		key = StaticKey("")
	}
	return &CalorieNinjas{key: key, baseURL: baseURL, httpClient: httpClient, logger: infra.Component(*logger, "calorieninjas")}
}

// Lookup returns the first item CalorieNinjas matches for query.
func (c *CalorieNinjas) Lookup(ctx context.Context, query string) (*Estimate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Invalid("query", "is required")
	}
	key, err := c.key(ctx)
	if err != nil {
		return nil, fmt.Errorf("calorieninjas: resolve key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/nutrition?query="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("calorieninjas: build request: %w", err)
	}
	req.Header.Set("X-Api-Key", key)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calorieninjas: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Int("status", resp.StatusCode).Msg("calorieninjas request failed")
		return nil, fmt.Errorf("%w: calorieninjas: status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var out calorieNinjasResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: calorieninjas: decode: %v", domain.ErrProviderFailure, err)
	}
	if len(out.Items) == 0 {
		return nil, ErrNoResult
	}
	item := out.Items[0]
	return &Estimate{
		Label: item.Name,
		Nutrition: domain.Nutrition{
			Calories: round1(item.Calories),
			Carbs:    round1(item.Carbohydrates),
			Protein:  round1(item.Protein),
			Fat:      round1(item.Fat),
		},
	}, nil
}
