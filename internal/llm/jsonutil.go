package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// fencePattern matches a reply wrapped in one markdown code block, with or
	// without a language tag: ```json { ... } ```
	fencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n?(.*?)\\s*```$")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// maxSalvageCandidates bounds how many opening brackets are tried when salvaging.
const maxSalvageCandidates = 64

// Recovery methods reported to metrics.
const (
	recoveryDirect   = "direct"
	recoveryFenced   = "fenced"
	recoverySalvaged = "salvaged"
	recoveryFailed   = "failed"
)

// StripCodeFences removes a surrounding markdown code fence, if present.
func StripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// ExtractJSON returns the JSON value contained in an LLM reply. It strips code
// fences and, failing that, salvages the first balanced {...} or [...] span that
// is valid JSON. Brackets inside string literals are ignored.
func ExtractJSON(text string) (string, error) {
	raw, _, err := extractJSON(text)
	return raw, err
}

// DecodeJSON extracts the JSON value from text and decodes it into a T.
func DecodeJSON[T any](text string) (T, error) {
	var out T
	if err := decodeInto(text, &out); err != nil {
		return out, err
	}
	return out, nil
}

func decodeInto(text string, out any) error {
	raw, _, err := extractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %w", ErrUnparsableOutput, err)
	}
	return nil
}

func extractJSON(text string) (string, string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", recoveryFailed, fmt.Errorf("%w: empty reply", ErrUnparsableOutput)
	}

	stripped := StripCodeFences(trimmed)
	if json.Valid([]byte(stripped)) {
		if stripped != trimmed {
			return stripped, recoveryFenced, nil
		}
		return stripped, recoveryDirect, nil
	}

	for _, span := range balancedSpans(stripped, maxSalvageCandidates) {
		if json.Valid([]byte(span)) {
			return span, recoverySalvaged, nil
		}
		if cleaned := trailingCommaPattern.ReplaceAllString(span, "$1"); cleaned != span && json.Valid([]byte(cleaned)) {
			return cleaned, recoverySalvaged, nil
		}
	}
	return "", recoveryFailed, fmt.Errorf("%w: no JSON value found in %d bytes", ErrUnparsableOutput, len(trimmed))
}

// balancedSpans returns, in order of their opening position, the spans that start
// at '{' or '[' and end at the matching closer. String literals and escapes are
// respected. At most limit openings are examined.
func balancedSpans(s string, limit int) []string {
	var spans []string
	tried := 0
	for i := 0; i < len(s) && tried < limit; i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		tried++
		if end := matchClose(s, i); end > i {
			spans = append(spans, s[i:end+1])
		}
	}
	return spans
}

// matchClose returns the index of the bracket closing the one at start, or -1.
func matchClose(s string, start int) int {
	stack := make([]byte, 0, 16)
	inString := false
	escaped := false
	for j := start; j < len(s); j++ {
		ch := s[j]
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
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return j
			}
		}
	}
	return -1
}
