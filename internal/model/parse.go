package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a surrounding ```json ... ``` block that some models
// add even when asked for bare JSON.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON decodes a model's JSON answer into v.
func DecodeJSON(raw string, v any) error {
	clean := StripCodeFences(raw)
	if clean == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("failed to decode model JSON: %w", err)
	}
	return nil
}
