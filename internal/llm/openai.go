package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient implements the Generator interface using the OpenAI Chat
// Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type openAISettings struct {
	model   string
	baseURL string
}

// OpenAIOption is a functional option for configuring OpenAIClient.
type OpenAIOption func(*openAISettings)

// WithOpenAIModel sets the default model for the client.
func WithOpenAIModel(model string) OpenAIOption {
	return func(s *openAISettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithOpenAIBaseURL points the client at an alternative API endpoint, such
// as a compatible proxy or a test server.
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(s *openAISettings) {
		s.baseURL = baseURL
	}
}

// NewOpenAIClient creates a new OpenAI generation client.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	settings := openAISettings{model: DefaultOpenAIModel}
	for _, opt := range opts {
		opt(&settings)
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if settings.baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(settings.baseURL))
	}

	client := openai.NewClient(requestOpts...)
	return &OpenAIClient{
		client: &client,
		model:  settings.model,
	}
}

// Generate sends a prompt to OpenAI and returns the raw generated text.
//
// OpenAI exposes no multiplicative repetition penalty or n-gram blocking;
// RepetitionPenalty is translated onto the additive frequency_penalty scale
// and NoRepeatNgramSize is not sent.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(float64(opts.Temperature))
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(float64(opts.TopP))
	}
	if opts.MaxNewTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxNewTokens))
	}
	if opts.RepetitionPenalty > 1 {
		params.FrequencyPenalty = openai.Float(float64(opts.RepetitionPenalty - 1))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices for model %s", model)
	}

	return resp.Choices[0].Message.Content, nil
}

// Ensure OpenAIClient implements Generator interface.
var _ Generator = (*OpenAIClient)(nil)
