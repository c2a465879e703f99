package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"texttransform/internal/domain/entity"
)

type geminiRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func newFakeGemini(t *testing.T, status int, body string, seen *geminiRequest, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		if !strings.HasSuffix(r.URL.Path, "test-model:generateContent") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestCapability(t *testing.T, baseURL string) *GeminiCapability {
	t.Helper()
	g, err := NewGeminiCapability(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		BaseURL: baseURL + "/",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new gemini capability: %v", err)
	}
	return g
}

func TestNewGeminiCapabilityRequiresKey(t *testing.T) {
	if _, err := NewGeminiCapability(context.Background(), GeminiConfig{APIKey: "  "}); err == nil {
		t.Fatalf("expected error for blank api key")
	}
}

func TestGenerateContentSendsInputAndParsesCandidates(t *testing.T) {
	var seen geminiRequest
	var hits int
	srv := newFakeGemini(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"wor"},{"text":"ld"}]}},{"content":{"parts":[{"text":"other"}]}}]}`,
		&seen, &hits)
	g := newTestCapability(t, srv.URL)

	resp, err := g.GenerateContent(context.Background(), "test-model", entity.NewTextPayload("hello"))
	if err != nil {
		t.Fatalf("generate content: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one upstream call, got %d", hits)
	}
	if len(seen.Contents) != 1 || len(seen.Contents[0].Parts) != 1 || seen.Contents[0].Parts[0].Text != "hello" {
		t.Fatalf("unexpected request contents: %+v", seen)
	}
	if seen.Contents[0].Role != "user" {
		t.Errorf("expected user role, got %q", seen.Contents[0].Role)
	}
	if len(resp.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(resp.Candidates))
	}
	if got := resp.Candidates[0].Content.Text; got != "world" {
		t.Errorf("expected joined text world, got %q", got)
	}
}

func TestGenerateContentNoCandidates(t *testing.T) {
	var hits int
	srv := newFakeGemini(t, http.StatusOK, `{"candidates":[]}`, nil, &hits)
	g := newTestCapability(t, srv.URL)

	resp, err := g.GenerateContent(context.Background(), "test-model", entity.NewTextPayload("hello"))
	if err != nil {
		t.Fatalf("generate content: %v", err)
	}
	if len(resp.Candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(resp.Candidates))
	}
}

func TestGenerateContentAPIError(t *testing.T) {
	var hits int
	srv := newFakeGemini(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, nil, &hits)
	g := newTestCapability(t, srv.URL)

	if _, err := g.GenerateContent(context.Background(), "test-model", entity.NewTextPayload("hello")); err == nil {
		t.Fatalf("expected api error")
	}
}

func TestGenerateContentRejectsEmptyPayload(t *testing.T) {
	var hits int
	srv := newFakeGemini(t, http.StatusOK, `{}`, nil, &hits)
	g := newTestCapability(t, srv.URL)

	if _, err := g.GenerateContent(context.Background(), "test-model", entity.GenerationPayload{}); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if hits != 0 {
		t.Errorf("expected no upstream call, got %d", hits)
	}
}

func TestParseResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking", Thought: true},
				{Text: "answer"},
			}}},
			{Content: nil},
			nil,
		},
	}

	out := parseResponse(resp)
	if len(out.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out.Candidates))
	}
	if out.Candidates[0].Content.Text != "answer" {
		t.Errorf("expected thought parts skipped, got %q", out.Candidates[0].Content.Text)
	}
	if out.Candidates[1].Content.Text != "" {
		t.Errorf("expected empty text for missing content, got %q", out.Candidates[1].Content.Text)
	}

	if got := parseResponse(nil); len(got.Candidates) != 0 {
		t.Errorf("expected empty response for nil input")
	}
}
