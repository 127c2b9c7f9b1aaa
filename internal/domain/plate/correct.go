package plate

import "strings"

// Look-alike substitutions, applied only inside the zone kind they target.
var (
	toLetter = map[byte]byte{'5': 'S', '8': 'B', '1': 'I', '0': 'O'}
	toDigit  = map[byte]byte{'O': '0', 'I': '1', 'S': '5', 'B': '8'}
)

// Correct fixes common OCR confusions by position. Every grammar of matching
// length is tried in classifier order and the first candidate that classifies
// as valid wins, returned in compact form. In every other case text comes
// back exactly as given.
func Correct(text string) string {
	compact := strings.ReplaceAll(text, "-", "")
	if !hasGrammarLen(len(compact)) || Classify(compact).Valid {
		return text
	}

	for _, g := range Grammars {
		candidate, ok := correctFor(g, compact)
		if !ok || candidate == compact {
			continue
		}
		if Classify(candidate).Valid {
			return candidate
		}
	}
	return text
}

func correctFor(g Grammar, text string) (string, bool) {
	parts, ok := g.Split(text)
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.Grow(len(text))
	for i, z := range g.Zones {
		table := toLetter
		if z.Kind == ZoneDigits {
			table = toDigit
		}
		for j := 0; j < len(parts[i]); j++ {
			c := parts[i][j]
			if r, ok := table[c]; ok {
				c = r
			}
			b.WriteByte(c)
		}
	}
	return b.String(), true
}
