package server

// GenerateRequest is the JSON body for POST /generate. Prompt is required;
// the remaining fields default to the service-configured values when omitted.
type GenerateRequest struct {
	Prompt            string  `json:"prompt"`
	MaxNewTokens      int     `json:"max_new_tokens,omitempty"`
	Temperature       float32 `json:"temperature,omitempty"`
	TopP              float32 `json:"top_p,omitempty"`
	RepetitionPenalty float32 `json:"repetition_penalty,omitempty"`
	NoRepeatNgramSize *int    `json:"no_repeat_ngram_size,omitempty"`
}

// GenerateResponse is the JSON response for POST /generate.
type GenerateResponse struct {
	ID            string `json:"id"`
	Model         string `json:"model"`
	GeneratedText string `json:"generated_text"`
	DurationMS    int64  `json:"duration_ms"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
