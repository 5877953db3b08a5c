// Package service implements the request-handling core of the text
// generation service: validation, default filling, backend invocation and
// post-processing.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/knoguchi/textgen/internal/llm"
	"github.com/knoguchi/textgen/internal/textproc"
)

// ValidationError reports a request field that is missing or out of range.
// It maps to a 4xx response at the HTTP boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Request carries a single generation request. Prompt is required; every
// other field is optional and filled from the service defaults when unset.
// NoRepeatNgramSize is a pointer because zero (blocking disabled) is a valid
// explicit value, distinct from "not provided".
type Request struct {
	Prompt            string
	MaxNewTokens      int
	Temperature       float32
	TopP              float32
	RepetitionPenalty float32
	NoRepeatNgramSize *int
}

// Result is the outcome of one generation, discarded after the response is
// produced.
type Result struct {
	ID          uuid.UUID
	Model       string
	RawText     string
	CleanedText string
	Duration    time.Duration
}

// Defaults are the decoding parameters applied when a request omits them.
type Defaults struct {
	MaxNewTokens      int
	Temperature       float32
	TopP              float32
	RepetitionPenalty float32
	NoRepeatNgramSize int
}

// GenerationService validates requests, invokes the generation backend and
// post-processes its output. It holds no per-request state; the backend
// handle is read-only after construction, so one instance is shared across
// all requests.
type GenerationService struct {
	generator llm.Generator
	cleaner   *textproc.Cleaner
	defaults  Defaults
	model     string
	logger    *slog.Logger
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(generator llm.Generator, cleaner *textproc.Cleaner, defaults Defaults, model string, logger *slog.Logger) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{
		generator: generator,
		cleaner:   cleaner,
		defaults:  defaults,
		model:     model,
		logger:    logger,
	}
}

// Model returns the configured model identifier.
func (s *GenerationService) Model() string {
	return s.model
}

// Generate validates req, fills unset parameters from the configured
// defaults, runs the backend and cleans the raw output. Validation failures
// return a *ValidationError before the backend is touched; backend failures
// are returned unwrapped of any retry logic.
func (s *GenerationService) Generate(ctx context.Context, req Request) (*Result, error) {
	opts, err := s.buildOptions(req)
	if err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(req.Prompt)
	start := time.Now()

	raw, err := s.generator.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	result := &Result{
		ID:          uuid.New(),
		Model:       s.model,
		RawText:     raw,
		CleanedText: s.cleaner.Clean(raw, prompt),
		Duration:    time.Since(start),
	}

	s.logger.Debug("generation complete",
		"id", result.ID,
		"model", result.Model,
		"raw_len", len(result.RawText),
		"cleaned_len", len(result.CleanedText),
		"duration", result.Duration,
	)

	return result, nil
}

// buildOptions validates the request and produces the backend options,
// substituting configured defaults for unset fields. For the float and int
// parameters the zero value means "not provided": zero is outside every
// valid range except NoRepeatNgramSize, which uses a pointer instead.
func (s *GenerationService) buildOptions(req Request) (llm.GenerateOptions, error) {
	var opts llm.GenerateOptions

	if strings.TrimSpace(req.Prompt) == "" {
		return opts, &ValidationError{Field: "prompt", Reason: "must not be empty"}
	}

	opts.Model = s.model

	switch {
	case req.MaxNewTokens == 0:
		opts.MaxNewTokens = s.defaults.MaxNewTokens
	case req.MaxNewTokens < 0:
		return opts, &ValidationError{Field: "max_new_tokens", Reason: "must be a positive integer"}
	default:
		opts.MaxNewTokens = req.MaxNewTokens
	}

	switch {
	case req.Temperature == 0:
		opts.Temperature = s.defaults.Temperature
	case req.Temperature < 0 || req.Temperature > 2:
		return opts, &ValidationError{Field: "temperature", Reason: "must be in (0, 2]"}
	default:
		opts.Temperature = req.Temperature
	}

	switch {
	case req.TopP == 0:
		opts.TopP = s.defaults.TopP
	case req.TopP < 0 || req.TopP > 1:
		return opts, &ValidationError{Field: "top_p", Reason: "must be in (0, 1]"}
	default:
		opts.TopP = req.TopP
	}

	switch {
	case req.RepetitionPenalty == 0:
		opts.RepetitionPenalty = s.defaults.RepetitionPenalty
	case req.RepetitionPenalty < 1:
		return opts, &ValidationError{Field: "repetition_penalty", Reason: "must be >= 1"}
	default:
		opts.RepetitionPenalty = req.RepetitionPenalty
	}

	switch {
	case req.NoRepeatNgramSize == nil:
		opts.NoRepeatNgramSize = s.defaults.NoRepeatNgramSize
	case *req.NoRepeatNgramSize < 0:
		return opts, &ValidationError{Field: "no_repeat_ngram_size", Reason: "must be >= 0"}
	default:
		opts.NoRepeatNgramSize = *req.NoRepeatNgramSize
	}

	return opts, nil
}
