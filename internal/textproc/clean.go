// Package textproc cleans raw model output into presentable text.
package textproc

import (
	"strings"
)

// DefaultMaxWords is the word cap applied when none is configured.
const DefaultMaxWords = 200

// Cleaner post-processes raw generations: deduplicates repeated lines,
// strips the echoed prompt from the start of the text, and caps the length
// at a word budget. Cleaning never fails; any input degrades to an empty or
// shorter string.
type Cleaner struct {
	// MaxWords is the maximum number of whitespace-delimited words kept in
	// the cleaned output.
	MaxWords int
}

// NewCleaner creates a Cleaner with the given word cap. Non-positive caps
// fall back to DefaultMaxWords.
func NewCleaner(maxWords int) *Cleaner {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return &Cleaner{MaxWords: maxWords}
}

// Clean runs the full post-processing pipeline on a raw generation.
func (c *Cleaner) Clean(raw, prompt string) string {
	text := DedupeLines(raw)
	text = StripPromptEcho(text, prompt)
	return TruncateWords(text, c.MaxWords)
}

// DedupeLines drops every line whose trimmed form is identical to a line
// already kept. Surviving lines keep their original text and order, so the
// function is idempotent.
func DedupeLines(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	unique := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))

	for _, line := range lines {
		key := strings.TrimSpace(line)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, line)
	}

	return strings.Join(unique, "\n")
}

// StripPromptEcho removes leading occurrences of the prompt from the text.
// Matching is exact-prefix; models that echo the prompt more than once at the
// start have every leading copy removed, so the result never begins with the
// prompt. A text consisting solely of the echoed prompt reduces to "".
func StripPromptEcho(text, prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return text
	}

	text = strings.TrimSpace(text)
	for strings.HasPrefix(text, prompt) {
		text = strings.TrimSpace(strings.TrimPrefix(text, prompt))
	}
	return text
}

// TruncateWords caps text at n whitespace-delimited words. Truncation happens
// on word boundaries only; text at or under the cap passes through unchanged.
func TruncateWords(text string, n int) string {
	if n <= 0 {
		return ""
	}

	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}
