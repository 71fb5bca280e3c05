package content

import (
	"encoding/json"
	"regexp"
	"strings"

	"ContentGenerator/internal/domain"
)

var fenceExpr = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")

const snippetLen = 80

// Extract turns a completion into a structured object. Structured completions
// pass through; text is stripped of code fences and the first balanced
// object literal that decodes cleanly wins.
func Extract(c domain.Completion) (map[string]any, error) {
	if c.Structured != nil {
		return c.Structured, nil
	}

	text := strings.TrimSpace(c.Text)
	if text == "" {
		return nil, &domain.ParseError{Reason: "empty response"}
	}

	var lastErr error
	for _, candidate := range candidates(text) {
		obj, err := firstObject(candidate)
		if err == nil {
			return obj, nil
		}
		if lastErr == nil {
			lastErr = err
		}
	}
	return nil, lastErr
}

// candidates lists fenced bodies first, then the text with fence markers removed.
func candidates(text string) []string {
	var out []string
	for _, m := range fenceExpr.FindAllStringSubmatch(text, -1) {
		if body := strings.TrimSpace(m[1]); body != "" {
			out = append(out, body)
		}
	}
	out = append(out, fenceExpr.ReplaceAllString(text, "$1"))
	return out
}

func firstObject(s string) (map[string]any, error) {
	var malformed error
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end := matchBrace(s, start); end < 0 {
			if malformed == nil {
				malformed = &domain.ParseError{Reason: "unbalanced object literal", Snippet: snippet(s[start:])}
			}
		} else {
			var obj map[string]any
			err := json.Unmarshal([]byte(s[start:end+1]), &obj)
			if err == nil {
				return obj, nil
			}
			if malformed == nil {
				malformed = &domain.ParseError{Reason: "malformed object literal: " + err.Error(), Snippet: snippet(s[start:])}
			}
		}

		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	if malformed != nil {
		return nil, malformed
	}
	return nil, &domain.ParseError{Reason: "no object literal found", Snippet: snippet(s)}
}

// matchBrace returns the index of the brace closing s[start], skipping
// braces inside string literals, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	return s[:snippetLen]
}
