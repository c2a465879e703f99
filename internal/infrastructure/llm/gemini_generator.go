package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"texttransform/internal/domain/entity"
	"texttransform/internal/domain/repository"
	"texttransform/internal/infrastructure/metrics"
)

type GeminiConfig struct {
	APIKey  string
	BaseURL string // empty means the SDK default endpoint
	Timeout time.Duration
}

// GeminiCapability calls the Gemini API through the genai SDK.
// The underlying client is created once and shared by all requests.
type GeminiCapability struct {
	client *genai.Client
}

var _ repository.GenerationCapability = (*GeminiCapability)(nil)

func NewGeminiCapability(ctx context.Context, cfg GeminiConfig) (*GeminiCapability, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiCapability{client: client}, nil
}

func (g *GeminiCapability) GenerateContent(ctx context.Context, model string, payload entity.GenerationPayload) (*entity.GenerationResponse, error) {
	if len(payload.Contents) == 0 {
		metrics.IncError("llm", "empty_payload")
		return nil, errors.New("payload has no contents")
	}

	parts := make([]*genai.Part, 0, len(payload.Contents))
	for _, c := range payload.Contents {
		parts = append(parts, genai.NewPartFromText(c.Text))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		metrics.IncError("llm", "generate_content")
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	return parseResponse(resp), nil
}

// parseResponse keeps one entry per candidate. A candidate without content
// maps to empty text.
func parseResponse(resp *genai.GenerateContentResponse) *entity.GenerationResponse {
	out := &entity.GenerationResponse{}
	if resp == nil {
		return out
	}
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		out.Candidates = append(out.Candidates, entity.Candidate{
			Content: entity.CandidateContent{Text: candidateText(c.Content)},
		})
	}
	return out
}

func candidateText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
