package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoObject means the model output contained no {...} span at all
var ErrNoObject = errors.New("no JSON object in model output")

// ExtractObject locates the JSON object in free-form model output.
// The greedy span from the first '{' to the last '}' wins when it parses;
// otherwise the first balanced object is tried. The greedy span is returned
// as a last resort so callers see the real parse error.
func ExtractObject(raw string) (string, bool) {
	s := cleanJSON(raw)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}

	greedy := s[start : end+1]
	if json.Valid([]byte(greedy)) {
		return greedy, true
	}
	if balanced, ok := firstBalanced(s[start:]); ok && json.Valid([]byte(balanced)) {
		return balanced, true
	}
	return greedy, true
}

// DecodeObject extracts the JSON object from raw and unmarshals it into v
func DecodeObject(raw string, v interface{}) error {
	obj, ok := ExtractObject(raw)
	if !ok {
		return ErrNoObject
	}
	return json.Unmarshal([]byte(obj), v)
}

// firstBalanced returns the object that opens at s[0], skipping braces inside strings
func firstBalanced(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
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
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// cleanJSON strips markdown fences if the model wraps its response in ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
