package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON extracts and unmarshals the first JSON object in an LLM
// response, tolerating surrounding markdown fences or chatter.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return zero, fmt.Errorf("no JSON object found in response")
	}

	var result T
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// FirstLine trims a free-text LLM response down to its first non-empty
// line, with quotes and fences stripped.
func FirstLine(response string) string {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.Trim(line, "\"'`")
		if line != "" {
			return line
		}
	}
	return ""
}
