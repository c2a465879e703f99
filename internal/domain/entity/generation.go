package entity

import (
	"errors"
	"fmt"
)

// NoResponseText is returned in place of an empty candidate text.
const NoResponseText = "No response generated."

var (
	ErrMissingInput = errors.New("missing input text")
	ErrNoCandidates = errors.New("no candidates found in generation response")
)

// GenerationRequest is the validated input of a single transform call.
type GenerationRequest struct {
	InputText string `json:"inputText"`
}

// GenerationResult is serialized directly into the HTTP response body.
// Exactly one of the fields is set.
type GenerationResult struct {
	TransformedText string `json:"transformedText,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ContentPart is one text entry of a generation payload.
type ContentPart struct {
	Text string `json:"text"`
}

// GenerationPayload is what gets handed to the generation capability.
type GenerationPayload struct {
	Contents []ContentPart `json:"contents"`
}

func NewTextPayload(text string) GenerationPayload {
	return GenerationPayload{Contents: []ContentPart{{Text: text}}}
}

type CandidateContent struct {
	Text string `json:"text"`
}

type Candidate struct {
	Content CandidateContent `json:"content"`
}

// GenerationResponse is the parsed response of the generation capability.
type GenerationResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// GenerationError wraps any failure of the external generation capability.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate text with %s: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
