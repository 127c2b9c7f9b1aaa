package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldGlyphs maps width variants and accented letters from OCR output to
// their ASCII base (Ｋ -> K, Ó -> O). A chain keeps internal buffers, so each
// call gets its own.
func foldGlyphs() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizePlate uppercases raw OCR text and keeps only A-Z and 0-9.
// Hyphens and whitespace are dropped; the classifier puts the hyphen back.
func NormalizePlate(raw string) string {
	folded, _, err := transform.String(foldGlyphs(), raw)
	if err != nil {
		folded = raw
	}
	folded = strings.ToUpper(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for i := 0; i < len(folded); i++ {
		c := folded[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// PlateKey is the registry key of a plate in either hyphenated or compact form.
func PlateKey(plate string) string {
	return NormalizePlate(plate)
}
