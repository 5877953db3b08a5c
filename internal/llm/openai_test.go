package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knoguchi/textgen/internal/llm"
)

func TestOpenAIClient_Generate(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]any{
						"role":    "assistant",
						"content": "AI is a field of computer science.",
					},
				},
			},
		})
	}))
	defer server.Close()

	client := llm.NewOpenAIClient("sk-test",
		llm.WithOpenAIModel("gpt-4o-mini"),
		llm.WithOpenAIBaseURL(server.URL),
	)

	out, err := client.Generate(context.Background(), "What is AI?", llm.GenerateOptions{
		MaxNewTokens:      50,
		Temperature:       0.7,
		TopP:              0.9,
		RepetitionPenalty: 1.2,
		NoRepeatNgramSize: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "AI is a field of computer science.", out)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-6)
	assert.InDelta(t, 0.9, got["top_p"], 1e-6)
	assert.EqualValues(t, 50, got["max_completion_tokens"])
	// The multiplicative penalty is translated to the additive scale.
	assert.InDelta(t, 0.2, got["frequency_penalty"], 1e-6)
	// n-gram blocking has no OpenAI equivalent.
	assert.NotContains(t, got, "no_repeat_ngram_size")
}

func TestOpenAIClient_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{},
		})
	}))
	defer server.Close()

	client := llm.NewOpenAIClient("sk-test", llm.WithOpenAIBaseURL(server.URL))

	_, err := client.Generate(context.Background(), "hi", llm.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
