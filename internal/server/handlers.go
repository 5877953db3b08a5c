package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/knoguchi/textgen/internal/service"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// handleGenerate handles POST /generate.
func (s *HTTPServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.svc.Generate(r.Context(), service.Request{
		Prompt:            req.Prompt,
		MaxNewTokens:      req.MaxNewTokens,
		Temperature:       req.Temperature,
		TopP:              req.TopP,
		RepetitionPenalty: req.RepetitionPenalty,
		NoRepeatNgramSize: req.NoRepeatNgramSize,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}

		s.logger.Error("generation failed", "error", err)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		ID:            result.ID.String(),
		Model:         result.Model,
		GeneratedText: result.CleanedText,
		DurationMS:    result.Duration.Milliseconds(),
	})
}

// handleRoot handles GET /. Useful as a quick liveness probe from a browser.
func (s *HTTPServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Text Generation Service!",
	})
}
