// Package langdetect guesses the language of untagged fenced code blocks.
// It uses go-enry and a few cheap structural checks, and normalizes results
// to the fence tags the syntax highlighter understands.
package langdetect

import (
	"bytes"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// candidates restricts the enry classifier to languages that commonly appear
// in fenced blocks. Classifying against the full linguist set is slow and
// noisy for short snippets.
var candidates = []string{
	"Go", "Python", "Shell", "JavaScript", "TypeScript",
	"Ruby", "Rust", "Java", "C", "C++", "SQL", "JSON",
	"YAML", "TOML", "HTML", "CSS", "Markdown", "Dockerfile",
}

// Detect returns a fence tag for the given code content, or "" when the
// content cannot be identified with reasonable confidence. Callers should
// treat "" as plain text.
func Detect(content []byte) string {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return ""
	}

	// Shebangs are the most reliable signal.
	if lang, safe := enry.GetLanguageByShebang(content); safe {
		return normalize(lang)
	}

	if lang := detectByStructure(trimmed); lang != "" {
		return lang
	}

	// The classifier only counts when it is confident.
	if lang, safe := enry.GetLanguageByClassifier(content, candidates); safe && lang != "" {
		return normalize(lang)
	}

	return ""
}

// detectByStructure checks for patterns that identify a language outright,
// before paying for the classifier.
func detectByStructure(trimmed []byte) string {
	if bytes.HasPrefix(trimmed, []byte("package ")) && bytes.Contains(trimmed, []byte("func ")) {
		return "go"
	}
	if bytes.HasPrefix(trimmed, []byte("<!DOCTYPE")) || bytes.HasPrefix(trimmed, []byte("<html")) {
		return "html"
	}
	if bytes.HasPrefix(trimmed, []byte("FROM ")) && bytes.Contains(trimmed, []byte("RUN ")) {
		return "docker"
	}
	if (bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("["))) &&
		bytes.Contains(trimmed, []byte(`":`)) {
		return "json"
	}
	if looksLikeSQL(trimmed) {
		return "sql"
	}
	return ""
}

func looksLikeSQL(trimmed []byte) bool {
	upper := strings.ToUpper(string(trimmed))
	for _, kw := range []string{"SELECT ", "INSERT INTO ", "UPDATE ", "DELETE FROM ", "CREATE TABLE "} {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}

// normalize maps enry language names onto the tags chroma registers lexers
// under. Unmapped names pass through lowercased, which matches chroma's
// aliasing for the common cases.
func normalize(lang string) string {
	switch lang {
	case "Shell":
		return "bash"
	case "Dockerfile":
		return "docker"
	case "C++":
		return "cpp"
	default:
		return strings.ToLower(lang)
	}
}
