// Package insights runs the two model-backed dashboard flows: summarizing key
// metrics with suggested actions, and turning metrics plus a summary into
// concrete suggestions.
package insights

import (
	"context"
	"errors"
)

var (
	// ErrDisabled is returned when no model is configured.
	ErrDisabled = errors.New("insights disabled")
	// ErrInvalidInput wraps missing or malformed flow input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyOutput is returned when the model answered but a required output
	// field is missing or blank.
	ErrEmptyOutput = errors.New("model returned empty output")
	// ErrBlocked is returned when the provider refused the prompt or answer.
	ErrBlocked = errors.New("model response blocked")
)

// Schema describes the JSON object the model must answer with. It marshals
// to the provider's responseSchema format.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// HarmCategory and HarmThreshold values follow the provider's enum names.
type (
	HarmCategory  string
	HarmThreshold string
)

const (
	HarmHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmSexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"

	BlockNone           HarmThreshold = "BLOCK_NONE"
	BlockOnlyHigh       HarmThreshold = "BLOCK_ONLY_HIGH"
	BlockMediumAndAbove HarmThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	BlockLowAndAbove    HarmThreshold = "BLOCK_LOW_AND_ABOVE"
)

type SafetySetting struct {
	Category  HarmCategory  `json:"category"`
	Threshold HarmThreshold `json:"threshold"`
}

// Request is one structured-output generation.
type Request struct {
	Flow   string
	Prompt string
	Schema *Schema
	Safety []SafetySetting
}

// Model generates a JSON document matching req.Schema.
type Model interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
