package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"aura/internal/infra"
)

const (
	defaultTimeout = 30 * time.Second
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
)

// detectPrompt is the fixed instruction sent with every generated image.
const detectPrompt = `Analyze this interior design image.
Identify the top 3-4 most prominent furniture or decor items (e.g., sofa, rug, lamp, chair, table).
For each item:
1. Give it a specific name (e.g. "White Boucle Sofa", "Jute Area Rug").
2. Assign a broad type (Furniture, Lighting, Decor).
3. Create a short shopping search query.

Return ONLY valid JSON array with this format:
[
    { "name": "Item Name", "type": "Type", "q": "Search Query" }
]
Do not include markdown formatting or backticks.`

var dataURLPrefix = regexp.MustCompile(`^data:image/(png|jpeg|webp);base64,`)

// Options configures the Gemini vision analyzer.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Analyzer extracts salient furniture and decor items from a generated
// image. Every failure mode collapses into an unsuccessful Analysis; the
// caller decides what to do next.
type Analyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *infra.Logger
}

// Item is one detected furniture or decor entry.
type Item struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Query string `json:"q"`
}

// Analysis is the analyzer's verdict. OK is false whenever credentials are
// missing, the call failed, or the response could not be parsed.
type Analysis struct {
	OK    bool
	Items []Item
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobPart `json:"inlineData,omitempty"`
}

type geminiBlobPart struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewAnalyzer constructs an analyzer. An empty API key is allowed and
// produces a disabled analyzer that short-circuits without network calls.
func NewAnalyzer(opts Options) *Analyzer {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Analyzer{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// Enabled reports whether the analyzer has credentials to call the service.
func (a *Analyzer) Enabled() bool {
	return a.apiKey != ""
}

// DetectProducts analyzes the generated image and returns the detected
// items. The image may be a base64 data URL or an https URL; remote images
// are downloaded and inlined before the call.
func (a *Analyzer) DetectProducts(ctx context.Context, image string) Analysis {
	if !a.Enabled() {
		a.logger.Warn().Msg("vision: api key missing, skipping product detection")
		return Analysis{}
	}

	blob, err := a.imageBlob(ctx, image)
	if err != nil {
		a.logger.Warn().Err(err).Msg("vision: could not prepare image payload")
		return Analysis{}
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: detectPrompt},
				{InlineData: blob},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		a.logger.Warn().Err(err).Msg("vision: encode request failed")
		return Analysis{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(body))
	if err != nil {
		a.logger.Warn().Err(err).Msg("vision: build request failed")
		return Analysis{}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn().Err(err).Msg("vision: product detection call failed")
		return Analysis{}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		a.logger.Warn().Int("status", resp.StatusCode).Msg("vision: product detection rejected")
		return Analysis{}
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		a.logger.Warn().Err(err).Msg("vision: decode response failed")
		return Analysis{}
	}
	text := extractText(decoded)
	if text == "" {
		a.logger.Warn().Msg("vision: empty model response")
		return Analysis{}
	}

	var items []Item
	if err := json.Unmarshal([]byte(extractJSONFragment(text)), &items); err != nil {
		a.logger.Warn().Err(err).Msg("vision: response is not a product array")
		return Analysis{}
	}
	a.logger.Debug().Int("items", len(items)).Msg("vision: detected products")
	return Analysis{OK: true, Items: items}
}

func (a *Analyzer) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, url.PathEscape(a.model))
}

// imageBlob normalizes the image reference into inline data: data URLs are
// stripped of their prefix, remote URLs are fetched first.
func (a *Analyzer) imageBlob(ctx context.Context, image string) (*geminiBlobPart, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, errors.New("vision: image is required")
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return a.download(ctx, image)
	}
	return &geminiBlobPart{
		MIMEType: "image/png",
		Data:     dataURLPrefix.ReplaceAllString(image, ""),
	}, nil
}

func (a *Analyzer) download(ctx context.Context, imageURL string) (*geminiBlobPart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vision: build download request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vision: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vision: read image: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return &geminiBlobPart{
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

// extractJSONFragment tolerates code fences and stray prose around the JSON
// payload the model was asked to return.
func extractJSONFragment(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
