package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knoguchi/textgen/internal/auth"
	"github.com/knoguchi/textgen/internal/llm"
	"github.com/knoguchi/textgen/internal/server"
	"github.com/knoguchi/textgen/internal/service"
	"github.com/knoguchi/textgen/internal/textproc"
)

// stubGenerator returns canned output or an error.
type stubGenerator struct {
	out      string
	err      error
	lastOpts llm.GenerateOptions
}

func (s *stubGenerator) Generate(_ context.Context, _ string, opts llm.GenerateOptions) (string, error) {
	s.lastOpts = opts
	if s.err != nil {
		return "", s.err
	}
	return s.out, nil
}

func newTestServer(t *testing.T, gen llm.Generator, jwtManager *auth.JWTManager) *server.HTTPServer {
	t.Helper()

	svc := service.NewGenerationService(gen, textproc.NewCleaner(200), service.Defaults{
		MaxNewTokens:      200,
		Temperature:       0.7,
		TopP:              0.9,
		RepetitionPenalty: 1.2,
		NoRepeatNgramSize: 2,
	}, "llama3.2", nil)

	s, err := server.NewHTTPServer(server.HTTPServerConfig{
		Port:       8000,
		Service:    svc,
		JWTManager: jwtManager,
	})
	require.NoError(t, err)
	return s
}

func doRequest(s *server.HTTPServer, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleRoot(t *testing.T) {
	s := newTestServer(t, &stubGenerator{out: "hi"}, nil)

	rec := doRequest(s, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Welcome to the Text Generation Service!", body["message"])
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &stubGenerator{out: "hi"}, nil)

	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/readyz", "", nil).Code)
}

func TestHandleGenerate_Success(t *testing.T) {
	gen := &stubGenerator{out: "What is AI?\nAI is a field of computer science.\nAI is a field of computer science."}
	s := newTestServer(t, gen, nil)

	rec := doRequest(s, http.MethodPost, "/generate",
		`{"prompt": "What is AI?", "max_new_tokens": 50}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "llama3.2", resp.Model)
	assert.False(t, strings.HasPrefix(resp.GeneratedText, "What is AI?"))
	assert.Equal(t, 1, strings.Count(resp.GeneratedText, "AI is a field of computer science."))
	assert.LessOrEqual(t, len(strings.Fields(resp.GeneratedText)), 200)

	// The decoding parameters reach the backend unchanged.
	assert.Equal(t, 50, gen.lastOpts.MaxNewTokens)
	assert.InDelta(t, 0.7, gen.lastOpts.Temperature, 1e-6)
}

func TestHandleGenerate_MalformedJSON(t *testing.T) {
	s := newTestServer(t, &stubGenerator{out: "hi"}, nil)

	rec := doRequest(s, http.MethodPost, "/generate", `{"prompt": `, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty prompt", `{"prompt": ""}`, "prompt"},
		{"negative temperature", `{"prompt": "p", "temperature": -1}`, "temperature"},
		{"top_p out of range", `{"prompt": "p", "top_p": 1.5}`, "top_p"},
		{"negative max_new_tokens", `{"prompt": "p", "max_new_tokens": -1}`, "max_new_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubGenerator{out: "hi"}, nil)

			rec := doRequest(s, http.MethodPost, "/generate", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp server.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.field)
		})
	}
}

func TestHandleGenerate_BackendFailure(t *testing.T) {
	s := newTestServer(t, &stubGenerator{err: errors.New("model backend unavailable")}, nil)

	rec := doRequest(s, http.MethodPost, "/generate", `{"prompt": "p"}`, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp server.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "model backend unavailable")
}

func TestHandleGenerate_Auth(t *testing.T) {
	manager := auth.NewJWTManager(auth.DefaultJWTConfig("test-secret"))
	s := newTestServer(t, &stubGenerator{out: "hi"}, manager)

	t.Run("missing token rejected", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/generate", `{"prompt": "p"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/generate", `{"prompt": "p"}`, map[string]string{
			"Authorization": "Bearer not-a-token",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token accepted", func(t *testing.T) {
		token, err := manager.GenerateToken("tester")
		require.NoError(t, err)

		rec := doRequest(s, http.MethodPost, "/generate", `{"prompt": "p"}`, map[string]string{
			"Authorization": "Bearer " + token,
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health stays open", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUIPage(t *testing.T) {
	s := newTestServer(t, &stubGenerator{out: "hi"}, nil)

	rec := doRequest(s, http.MethodGet, "/ui", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Text Generation Service")
}
