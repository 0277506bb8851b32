package model

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxTokenLength bounds a push registration token.
const MaxTokenLength = 4096

// NormalizeToken trims a push token and rejects empty or malformed values.
func NormalizeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	if len(token) > MaxTokenLength {
		return "", fmt.Errorf("%w: token longer than %d bytes", ErrInvalidInput, MaxTokenLength)
	}
	for _, r := range token {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: token contains whitespace or control characters", ErrInvalidInput)
		}
	}
	return token, nil
}

// NormalizeLabel trims and lower-cases a watchlist name or classifier label.
func NormalizeLabel(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", fmt.Errorf("%w: animal name is required", ErrInvalidInput)
	}
	return name, nil
}
