package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// TermKeyer derives the trending store key from a search term
type TermKeyer struct {
	normalize bool
}

// NewTermKeyer creates a keyer. With normalize off the raw term is the key.
func NewTermKeyer(normalize bool) *TermKeyer {
	return &TermKeyer{normalize: normalize}
}

// Key returns the store key for term
func (k *TermKeyer) Key(term string) string {
	if k == nil || !k.normalize {
		return term
	}
	return NormalizeTerm(term)
}

// NormalizeTerm applies NFC, trims, collapses inner whitespace and case folds.
// A Caser is stateful, so one is built per call.
func NormalizeTerm(term string) string {
	term = norm.NFC.String(term)
	term = strings.Join(strings.Fields(term), " ")
	return cases.Fold().String(term)
}
