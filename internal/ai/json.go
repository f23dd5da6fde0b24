// json.go - Helpers for pulling structured payloads out of model answers

package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractJSON returns the outermost {...} block of a model answer, after
// stripping markdown code fences. Without braces the trimmed input is
// returned unchanged.
func ExtractJSON(response string) string {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if match := jsonObjectPattern.FindString(cleaned); match != "" {
		return match
	}
	return cleaned
}

// DecodeJSON extracts the embedded object and decodes it into v. A second
// attempt is made after escaping raw control characters inside strings.
func DecodeJSON(response string, v interface{}) error {
	payload := ExtractJSON(response)
	err := json.Unmarshal([]byte(payload), v)
	if err == nil {
		return nil
	}
	if retryErr := json.Unmarshal([]byte(fixJSONEscaping(payload)), v); retryErr == nil {
		return nil
	}
	return fmt.Errorf("invalid JSON in model response: %w", err)
}

var jsonStringPattern = regexp.MustCompile(`"([^"\\]*(?:\\.[^"\\]*)*)"`)

// fixJSONEscaping fixes common escaping issues in model responses
// Problem: models sometimes send literal newlines inside JSON strings instead of \n
func fixJSONEscaping(jsonStr string) string {
	return jsonStringPattern.ReplaceAllStringFunc(jsonStr, func(match string) string {
		content := match[1 : len(match)-1]

		// Order matters: backslash fixes first to avoid double-escaping
		content = strings.ReplaceAll(content, "\\ ", "\\\\ ")
		content = strings.ReplaceAll(content, "\n", "\\n")
		content = strings.ReplaceAll(content, "\r", "\\r")
		content = strings.ReplaceAll(content, "\t", "\\t")

		var builder strings.Builder
		for _, ch := range content {
			if ch < 0x20 {
				builder.WriteString(fmt.Sprintf("\\u%04x", ch))
			} else {
				builder.WriteRune(ch)
			}
		}
		return `"` + builder.String() + `"`
	})
}
