package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aura/internal/infra"
)

// ErrMissingAPIToken indicates that the client was configured without credentials.
var ErrMissingAPIToken = errors.New("replicate: api token is required")

// ErrRateLimited marks a 429 from the API so callers can surface an
// actionable message instead of a generic failure.
var ErrRateLimited = errors.New("replicate: rate limited")

const (
	defaultBaseURL = "https://api.replicate.com/v1"

	modelOwner = "stability-ai"
	modelName  = "sdxl"

	// Pinned SDXL 1.0 revision used whenever the latest-version lookup fails.
	fallbackVersion = "39ed52f2a78e934b3ba6e3a854c1490940a94f116920628e1746e29251626120"
)

// Options configures the Replicate predictions client.
type Options struct {
	APIToken       string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Replicate predictions API.
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger

	mu      sync.Mutex
	version string
}

// Status is the remote lifecycle state of a prediction.
type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal reports whether the prediction has reached a final state.
// Starting and processing are treated uniformly as in-flight.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// PredictionInput carries the model inputs for one image-to-image run.
// Inference steps and guidance scale are fixed across all requests.
type PredictionInput struct {
	Image             string  `json:"image"`
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	PromptStrength    float64 `json:"prompt_strength"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

// Prediction mirrors the remote job record. It is never mutated locally;
// callers replace it with the result of the next Get.
type Prediction struct {
	ID     string   `json:"id"`
	Status Status   `json:"status"`
	Output []string `json:"output,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type createPredictionRequest struct {
	Version string          `json:"version"`
	Input   PredictionInput `json:"input"`
}

type modelResponse struct {
	LatestVersion struct {
		ID string `json:"id"`
	} `json:"latest_version"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiToken:   strings.TrimSpace(opts.APIToken),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiToken != ""
}

// ResolveVersion returns the model revision to invoke: the latest published
// revision when the lookup succeeds, the pinned fallback otherwise. Lookup
// failures are absorbed and logged, never surfaced. A successful lookup is
// memoized for the lifetime of the client.
func (c *Client) ResolveVersion(ctx context.Context) string {
	c.mu.Lock()
	cached := c.version
	c.mu.Unlock()
	if cached != "" {
		return cached
	}

	endpoint := fmt.Sprintf("%s/models/%s/%s", c.baseURL, modelOwner, modelName)
	var decoded modelResponse
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		c.logger.Warn().Err(err).Msg("replicate: version lookup failed, using fallback")
		return fallbackVersion
	}
	version := strings.TrimSpace(decoded.LatestVersion.ID)
	if version == "" {
		c.logger.Warn().Msg("replicate: model has no latest version, using fallback")
		return fallbackVersion
	}

	c.mu.Lock()
	c.version = version
	c.mu.Unlock()
	c.logger.Debug().Str("version", version).Msg("replicate: resolved model version")
	return version
}

// Create submits a new prediction in the given model revision.
func (c *Client) Create(ctx context.Context, version string, input PredictionInput) (*Prediction, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIToken
	}
	payload := createPredictionRequest{Version: version, Input: input}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("replicate: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	prediction, err := c.doPrediction(req)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("prediction_id", prediction.ID).Str("status", string(prediction.Status)).Msg("replicate: prediction created")
	return prediction, nil
}

// Get fetches the current state of an existing prediction.
func (c *Client) Get(ctx context.Context, id string) (*Prediction, error) {
	if id == "" {
		return nil, errors.New("replicate: prediction id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	return c.doPrediction(req)
}

// Cancel asks the service to abort a running prediction. Best effort: the
// job may still complete before the cancel lands.
func (c *Client) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("replicate: prediction id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions/"+id+"/cancel", nil)
	if err != nil {
		return fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("replicate: cancel prediction: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("replicate: cancel status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) doPrediction(req *http.Request) (*Prediction, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("replicate: %w", ErrRateLimited)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
			return nil, fmt.Errorf("replicate: %s (status %d)", detail.Detail, resp.StatusCode)
		}
		return nil, fmt.Errorf("replicate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var prediction Prediction
	if err := json.Unmarshal(raw, &prediction); err != nil {
		return nil, fmt.Errorf("replicate: decode response: %w", err)
	}
	return &prediction, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("replicate: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("replicate: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("replicate: decode response: %w", err)
	}
	return nil
}
