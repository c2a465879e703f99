package repository

import (
	"context"

	"texttransform/internal/domain/entity"
)

// GenerationCapability is the external text-generation service.
// Implementations must be safe for concurrent use.
type GenerationCapability interface {
	GenerateContent(ctx context.Context, model string, payload entity.GenerationPayload) (*entity.GenerationResponse, error)
}
