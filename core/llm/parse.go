package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON cuts the first top-level JSON object out of a model response.
// Models routinely wrap their JSON in prose or markdown fences, so the cut
// runs from the first '{' to the last '}'.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return raw[start : end+1], nil
}

// ParseJSON extracts and unmarshals the JSON object in a model response.
func ParseJSON[T any](raw string) (T, error) {
	var parsed T

	extracted, err := ExtractJSON(raw)
	if err != nil {
		return parsed, err
	}

	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		return parsed, fmt.Errorf("unmarshaling response JSON: %w", err)
	}

	return parsed, nil
}
