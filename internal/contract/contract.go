// Package contract decodes model replies against a use-case schema.
//
// Parsing runs in two stages: a strict decode of the whole reply, then a
// recovery decode of the first balanced JSON object found inside it. When
// both fail the caller's fallback is returned, carrying the raw reply as the
// user-facing message, so callers always get a well-typed outcome.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContract wraps every reason a reply was replaced by its fallback.
	ErrContract = errors.New("model reply does not match contract")
	// ErrEmptyReply is returned for blank replies.
	ErrEmptyReply = errors.New("empty reply")
	// ErrNoObject is returned when no JSON object can be located.
	ErrNoObject = errors.New("no JSON object in reply")
)

// Outcome is a decoded reply. Validate reports missing required fields or
// values outside the schema's enumerations.
type Outcome interface {
	Validate() error
}

// Parse decodes raw into T. On failure it returns fallback(raw) together with
// an error wrapping ErrContract; the returned value is always usable.
func Parse[T Outcome](raw string, fallback func(raw string) T) (T, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback(raw), fmt.Errorf("%w: %w", ErrContract, ErrEmptyReply)
	}

	out, strictErr := decode[T](trimmed)
	if strictErr == nil {
		return out, nil
	}

	candidate, ok := FindObject(trimmed)
	if !ok {
		return fallback(raw), fmt.Errorf("%w: %w (strict decode: %v)", ErrContract, ErrNoObject, strictErr)
	}
	out, err := decode[T](candidate)
	if err != nil {
		return fallback(raw), fmt.Errorf("%w: %w", ErrContract, err)
	}
	return out, nil
}

func decode[T Outcome](s string) (T, error) {
	var out T
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("decode: %w", err)
	}
	if dec.More() {
		return out, errors.New("decode: trailing data after object")
	}
	if err := out.Validate(); err != nil {
		return out, fmt.Errorf("validate: %w", err)
	}
	return out, nil
}

// FindObject returns the first balanced {...} substring of s. Braces inside
// JSON strings are ignored. When the first object never closes, the span from
// the first '{' to the last '}' is returned instead.
func FindObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

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
				return s[start : i+1], true
			}
		}
	}

	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
