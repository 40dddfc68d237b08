// Package textproc turns raw words into index terms.
package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer maps a raw word to a term. An empty result means the word
// carries no searchable content and should be dropped.
type Normalizer interface {
	Normalize(token string) string
}

// NormalizerFunc adapts a plain function to Normalizer.
type NormalizerFunc func(token string) string

func (f NormalizerFunc) Normalize(token string) string {
	return f(token)
}

// BasicNormalizer keeps letters only and lower-cases them. Input is composed
// to NFC first so a base letter followed by a combining accent becomes a
// single letter instead of losing the accent.
type BasicNormalizer struct{}

func (BasicNormalizer) Normalize(token string) string {
	if strings.TrimSpace(token) == "" {
		return ""
	}
	composed := norm.NFC.String(token)
	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
