package usecase

import (
	"context"
	"log/slog"
	"time"

	"texttransform/internal/domain/entity"
	"texttransform/internal/domain/repository"
	"texttransform/internal/infrastructure/metrics"
)

type TextTransformUsecase interface {
	Transform(ctx context.Context, req entity.GenerationRequest) (entity.GenerationResult, error)
}

var _ TextTransformUsecase = (*TextTransformService)(nil)

// TextTransformService forwards input text to a generation capability with a
// model id that is fixed for the life of the service.
type TextTransformService struct {
	capability repository.GenerationCapability
	model      string
	logger     *slog.Logger
}

func NewTextTransformService(
	capability repository.GenerationCapability,
	model string,
	logger *slog.Logger,
) *TextTransformService {
	return &TextTransformService{
		capability: capability,
		model:      model,
		logger:     logger,
	}
}

// Transform expects a non-empty InputText. Any failure is a *entity.GenerationError.
func (s *TextTransformService) Transform(ctx context.Context, req entity.GenerationRequest) (entity.GenerationResult, error) {
	text, err := s.generateText(ctx, req.InputText)
	if err != nil {
		return entity.GenerationResult{}, err
	}
	return entity.GenerationResult{TransformedText: text}, nil
}

func (s *TextTransformService) generateText(ctx context.Context, input string) (string, error) {
	metrics.IncLLMRequest(s.model)
	payload := entity.NewTextPayload(input)
	s.logger.Debug("sending generation request", "model", s.model, "input_len", len(input))

	start := time.Now()
	resp, err := s.capability.GenerateContent(ctx, s.model, payload)
	metrics.ObserveLLMDuration(s.model, time.Since(start))
	if err != nil {
		metrics.IncError("usecase", "generate_content")
		return "", &entity.GenerationError{Model: s.model, Err: err}
	}

	if resp == nil || len(resp.Candidates) == 0 {
		metrics.IncError("usecase", "no_candidates")
		return "", &entity.GenerationError{Model: s.model, Err: entity.ErrNoCandidates}
	}

	text := resp.Candidates[0].Content.Text
	if text == "" {
		metrics.IncEmptyCandidateFallback()
		return entity.NoResponseText, nil
	}
	return text, nil
}
