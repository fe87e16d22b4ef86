// Package jsonx extracts JSON payloads from free-form model output.
//
// Models frequently wrap their JSON in prose or code fences. Unmarshal
// first tries a strict parse, then the substring between the first opening
// and last closing bracket, and otherwise fails closed so callers can fall
// back to a documented default.
package jsonx

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoPayload is returned when no parsable JSON payload is found.
var ErrNoPayload = errors.New("jsonx: no JSON payload found")

// Unmarshal parses the JSON object or array embedded in raw into v.
func Unmarshal(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrNoPayload
	}
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}
	for _, pair := range [...][2]string{{"{", "}"}, {"[", "]"}} {
		sub, ok := bracketed(trimmed, pair[0], pair[1])
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(sub), v); err == nil {
			return nil
		}
	}
	return ErrNoPayload
}

func bracketed(s, open, close string) (string, bool) {
	start := strings.Index(s, open)
	end := strings.LastIndex(s, close)
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
