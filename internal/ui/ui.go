// Package ui serves the interactive page that drives the generation API.
package ui

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed page.html
var pageFS embed.FS

var pageTmpl = template.Must(template.ParseFS(pageFS, "page.html"))

// PageData carries the model name and decoding defaults rendered into the
// form controls.
type PageData struct {
	Model             string
	MaxNewTokens      int
	Temperature       float32
	TopP              float32
	RepetitionPenalty float32
	NoRepeatNgramSize int
}

// Handler returns the GET /ui handler.
func Handler(data PageData) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.Execute(w, data); err != nil {
			http.Error(w, "failed to render page", http.StatusInternalServerError)
		}
	}
}
