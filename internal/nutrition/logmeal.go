package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"wellness/internal/domain"
	"wellness/internal/infra"
)

// LogMealOptions configures the LogMeal client.
type LogMealOptions struct {
	Key        KeySource
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// LogMeal recognises dishes in photos with the LogMeal segmentation API and
// then fetches their nutritional info.
type LogMeal struct {
	key        KeySource
	baseURL    string
	httpClient *http.Client
	logger     infra.Logger
}

type segmentationResponse struct {
	ImageID             json.Number `json:"imageId"`
	SegmentationResults []struct {
		RecognitionResults []struct {
			Name string  `json:"name"`
			Prob float64 `json:"prob"`
		} `json:"recognition_results"`
	} `json:"segmentation_results"`
}

type nutritionalInfoResponse struct {
	FoodName        []string `json:"foodName"`
	NutritionalInfo struct {
		Calories       float64 `json:"calories"`
		TotalNutrients map[string]struct {
			Quantity float64 `json:"quantity"`
			Unit     string  `json:"unit"`
		} `json:"totalNutrients"`
	} `json:"nutritional_info"`
}

func NewLogMeal(opts LogMealOptions) *LogMeal {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.logmeal.com"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	key := opts.Key
	if key == nil {
		key = StaticKey("")
	}
	return &LogMeal{key: key, baseURL: baseURL, httpClient: httpClient, logger: infra.Component(*logger, "logmeal")}
}

// Analyze segments the image and returns the nutritional info of the result.
// A segmentation without an image id yields ErrNoResult.
func (c *LogMeal) Analyze(ctx context.Context, img Image) (*Estimate, error) {
	if len(img.Data) == 0 {
		return nil, domain.Invalid("image", "is required")
	}
	token, err := c.key(ctx)
	if err != nil {
		return nil, fmt.Errorf("logmeal: resolve key: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingAPIKey
	}

	seg, err := c.segment(ctx, token, img)
	if err != nil {
		return nil, err
	}
	imageID := seg.ImageID.String()
	if imageID == "" || imageID == "0" {
		return nil, ErrNoResult
	}

	body, err := json.Marshal(map[string]any{"imageId": seg.ImageID})
	if err != nil {
		return nil, err
	}
	var info nutritionalInfoResponse
	if err := c.do(ctx, token, "/v2/recipe/nutritionalInfo", "application/json", bytes.NewReader(body), &info); err != nil {
		return nil, err
	}

	est := &Estimate{Nutrition: domain.Nutrition{
		Calories: round1(info.NutritionalInfo.Calories),
		Carbs:    round1(info.NutritionalInfo.TotalNutrients["CHOCDF"].Quantity),
		Protein:  round1(info.NutritionalInfo.TotalNutrients["PROCNT"].Quantity),
		Fat:      round1(info.NutritionalInfo.TotalNutrients["FAT"].Quantity),
	}}
	if len(info.FoodName) > 0 {
		est.Label = info.FoodName[0]
	} else if label := seg.topLabel(); label != "" {
		est.Label = label
	}
	c.logger.Debug().Str("image_id", imageID).Str("label", est.Label).Msg("nutritional info resolved")
	return est, nil
}

func (c *LogMeal) segment(ctx context.Context, token string, img Image) (*segmentationResponse, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	filename := img.Filename
	if filename == "" {
		filename = "photo.jpg"
	}
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var seg segmentationResponse
	if err := c.do(ctx, token, "/v2/image/segmentation/complete", mw.FormDataContentType(), buf, &seg); err != nil {
		return nil, err
	}
	return &seg, nil
}

func (c *LogMeal) do(ctx context.Context, token, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("logmeal: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: logmeal: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("logmeal request failed")
		return fmt.Errorf("%w: logmeal %s: status %d: %s", domain.ErrProviderFailure, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: logmeal %s: decode: %v", domain.ErrProviderFailure, path, err)
	}
	return nil
}

func (s *segmentationResponse) topLabel() string {
	for _, r := range s.SegmentationResults {
		if len(r.RecognitionResults) > 0 {
			return r.RecognitionResults[0].Name
		}
	}
	return ""
}
