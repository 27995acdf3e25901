package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type stubTransport struct {
	responses map[string]stubResponse
	lastBody  []byte
	calls     []string
}

type stubResponse struct {
	status      int
	contentType string
	body        []byte
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.Host + req.URL.Path
	s.calls = append(s.calls, key)
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		s.lastBody = body
	}
	stub, ok := s.responses[key]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("not found")),
		}, nil
	}
	contentType := stub.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	return &http.Response{
		StatusCode: stub.status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(bytes.NewReader(stub.body)),
	}, nil
}

func modelReply(text string) []byte {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role": "model",
					"parts": []any{
						map[string]any{"text": text},
					},
				},
			},
		},
	})
	return body
}

func newTestAnalyzer(t *testing.T) (*Analyzer, *stubTransport) {
	t.Helper()
	transport := &stubTransport{responses: map[string]stubResponse{}}
	analyzer := NewAnalyzer(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: transport},
	})
	return analyzer, transport
}

const generateKey = "POST generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

func TestDetectProductsParsesCodeFencedJSON(t *testing.T) {
	analyzer, transport := newTestAnalyzer(t)
	transport.responses[generateKey] = stubResponse{
		status: http.StatusOK,
		body:   modelReply("```json\n[{\"name\": \"White Boucle Sofa\", \"type\": \"Furniture\", \"q\": \"white boucle sofa\"}]\n```"),
	}

	analysis := analyzer.DetectProducts(context.Background(), "data:image/png;base64,AAAA")
	if !analysis.OK {
		t.Fatalf("analysis should succeed")
	}
	if len(analysis.Items) != 1 {
		t.Fatalf("item count = %d, want 1", len(analysis.Items))
	}
	item := analysis.Items[0]
	if item.Name != "White Boucle Sofa" || item.Type != "Furniture" || item.Query != "white boucle sofa" {
		t.Fatalf("unexpected item: %#v", item)
	}
}

func TestDetectProductsStripsDataURLPrefix(t *testing.T) {
	analyzer, transport := newTestAnalyzer(t)
	transport.responses[generateKey] = stubResponse{
		status: http.StatusOK,
		body:   modelReply(`[]`),
	}

	analyzer.DetectProducts(context.Background(), "data:image/png;base64,QkxPQg==")

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	contents := payload["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("parts len = %d, want text + image", len(parts))
	}
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	if inline["data"] != "QkxPQg==" {
		t.Fatalf("inline data = %v, want prefix stripped", inline["data"])
	}
	if inline["mimeType"] != "image/png" {
		t.Fatalf("mime type = %v, want image/png", inline["mimeType"])
	}
}

func TestDetectProductsDownloadsRemoteImage(t *testing.T) {
	analyzer, transport := newTestAnalyzer(t)
	raw := []byte{0x89, 'P', 'N', 'G'}
	transport.responses["GET replicate.delivery/result.png"] = stubResponse{
		status:      http.StatusOK,
		contentType: "image/png",
		body:        raw,
	}
	transport.responses[generateKey] = stubResponse{
		status: http.StatusOK,
		body:   modelReply(`[{"name": "Jute Area Rug", "type": "Decor", "q": "jute rug"}]`),
	}

	analysis := analyzer.DetectProducts(context.Background(), "https://replicate.delivery/result.png")
	if !analysis.OK {
		t.Fatalf("analysis should succeed")
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	contents := payload["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	if inline["data"] != base64.StdEncoding.EncodeToString(raw) {
		t.Fatalf("inline data should be the downloaded bytes, got %v", inline["data"])
	}
}

func TestDetectProductsDisabledWithoutKey(t *testing.T) {
	transport := &stubTransport{responses: map[string]stubResponse{}}
	analyzer := NewAnalyzer(Options{HTTPClient: &http.Client{Transport: transport}})

	analysis := analyzer.DetectProducts(context.Background(), "data:image/png;base64,AAAA")
	if analysis.OK {
		t.Fatalf("disabled analyzer must report failure")
	}
	if len(transport.calls) != 0 {
		t.Fatalf("disabled analyzer must not call the network, calls: %v", transport.calls)
	}
}

func TestDetectProductsMalformedResponse(t *testing.T) {
	analyzer, transport := newTestAnalyzer(t)
	transport.responses[generateKey] = stubResponse{
		status: http.StatusOK,
		body:   modelReply("Sorry, I cannot identify any products in this image."),
	}

	analysis := analyzer.DetectProducts(context.Background(), "data:image/png;base64,AAAA")
	if analysis.OK {
		t.Fatalf("malformed response must report failure, got %#v", analysis)
	}
	if len(analysis.Items) != 0 {
		t.Fatalf("failed analysis must carry no items")
	}
}

func TestDetectProductsServerError(t *testing.T) {
	analyzer, transport := newTestAnalyzer(t)
	transport.responses[generateKey] = stubResponse{
		status: http.StatusInternalServerError,
		body:   []byte(`{"error": "boom"}`),
	}

	analysis := analyzer.DetectProducts(context.Background(), "data:image/png;base64,AAAA")
	if analysis.OK {
		t.Fatalf("server error must report failure")
	}
}

func TestExtractJSONFragment(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"```json\n[1]\n```", "[1]"},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"here you go: [1, 2]", "[1, 2]"},
		{"[1]", "[1]"},
	}
	for _, tc := range cases {
		if got := extractJSONFragment(tc.raw); got != tc.want {
			t.Fatalf("extractJSONFragment(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
