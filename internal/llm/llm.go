// Package llm provides interfaces and implementations for text generation backends.
package llm

import (
	"context"
)

// GenerateOptions configures a single generation request.
type GenerateOptions struct {
	// Model overrides the client's default model for this request.
	Model string

	// MaxNewTokens limits the number of tokens generated beyond the prompt.
	MaxNewTokens int

	// Temperature controls randomness in sampling. Higher values produce
	// more diverse output.
	Temperature float32

	// TopP is the nucleus sampling parameter: sampling is restricted to the
	// smallest token set whose cumulative probability reaches TopP.
	TopP float32

	// RepetitionPenalty is a multiplicative penalty (>= 1) on tokens that
	// already appeared in the output.
	RepetitionPenalty float32

	// NoRepeatNgramSize blocks n-grams of this size from repeating.
	// Zero disables blocking. Backends without an equivalent knob ignore it.
	NoRepeatNgramSize int
}

// Generator is the interface for text generation backends.
type Generator interface {
	// Generate sends a prompt to the backend and returns the complete raw
	// generation. It blocks until the full response is received or an error
	// occurs. Errors are not retried.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
