// Package plate classifies and corrects Nigerian license plate text.
package plate

import "strings"

// Class is the regulatory category of a Nigerian plate.
type Class string

const (
	ClassNone       Class = ""
	ClassPersonal   Class = "Personal"
	ClassCommercial Class = "Commercial"
	ClassGovernment Class = "Government"
)

func (c Class) Valid() bool {
	switch c {
	case ClassPersonal, ClassCommercial, ClassGovernment:
		return true
	}
	return false
}

// ParseClass accepts the class name in any case. Unknown names map to ClassNone.
func ParseClass(s string) Class {
	switch {
	case strings.EqualFold(s, string(ClassPersonal)):
		return ClassPersonal
	case strings.EqualFold(s, string(ClassCommercial)):
		return ClassCommercial
	case strings.EqualFold(s, string(ClassGovernment)):
		return ClassGovernment
	}
	return ClassNone
}

type ZoneKind int

const (
	ZoneLetters ZoneKind = iota
	ZoneDigits
)

// Zone is a contiguous run of plate characters. A zone with a Literal must
// hold exactly that text (the FG marker of federal plates).
type Zone struct {
	Kind    ZoneKind
	Len     int
	Literal string
}

// Grammar is one plate layout. Jurisdiction is the index of the zone that
// carries the issuing-authority code.
type Grammar struct {
	Name         string
	Class        Class
	Zones        []Zone
	Jurisdiction int
}

const (
	federalMarker = "FG"
	digitBlockLen = 3
	minPlateLen   = 7
)

// Grammars is ordered most specific first. Matching stops at the first hit.
var Grammars = []Grammar{
	{
		Name:  "government-prefix",
		Class: ClassGovernment,
		Zones: []Zone{
			{Kind: ZoneLetters, Len: 2, Literal: federalMarker},
			{Kind: ZoneDigits, Len: digitBlockLen},
			{Kind: ZoneLetters, Len: 2},
		},
		Jurisdiction: 2,
	},
	{
		Name:  "government-suffix",
		Class: ClassGovernment,
		Zones: []Zone{
			{Kind: ZoneLetters, Len: 2},
			{Kind: ZoneDigits, Len: digitBlockLen},
			{Kind: ZoneLetters, Len: 2, Literal: federalMarker},
		},
		Jurisdiction: 0,
	},
	{
		Name:  "personal",
		Class: ClassPersonal,
		Zones: []Zone{
			{Kind: ZoneLetters, Len: 3},
			{Kind: ZoneDigits, Len: digitBlockLen},
			{Kind: ZoneLetters, Len: 2},
		},
		Jurisdiction: 0,
	},
	{
		Name:  "commercial",
		Class: ClassCommercial,
		Zones: []Zone{
			{Kind: ZoneLetters, Len: 2},
			{Kind: ZoneDigits, Len: digitBlockLen},
			{Kind: ZoneLetters, Len: 3},
		},
		Jurisdiction: 0,
	},
}

// Len is the total character count of the layout.
func (g Grammar) Len() int {
	n := 0
	for _, z := range g.Zones {
		n += z.Len
	}
	return n
}

// Split cuts text into the grammar's zones. It reports false when the length
// does not fit.
func (g Grammar) Split(text string) ([]string, bool) {
	if len(text) != g.Len() {
		return nil, false
	}
	parts := make([]string, 0, len(g.Zones))
	pos := 0
	for _, z := range g.Zones {
		parts = append(parts, text[pos:pos+z.Len])
		pos += z.Len
	}
	return parts, true
}

// Match returns the zones of text when every zone holds what the layout
// expects.
func (g Grammar) Match(text string) ([]string, bool) {
	parts, ok := g.Split(text)
	if !ok {
		return nil, false
	}
	for i, z := range g.Zones {
		if !z.holds(parts[i]) {
			return nil, false
		}
	}
	return parts, true
}

func (z Zone) holds(s string) bool {
	if z.Literal != "" {
		return s == z.Literal
	}
	for i := 0; i < len(s); i++ {
		switch z.Kind {
		case ZoneLetters:
			if !isLetter(s[i]) {
				return false
			}
		case ZoneDigits:
			if !isDigit(s[i]) {
				return false
			}
		}
	}
	return true
}

// Lengths lists the distinct total lengths over all grammars.
func Lengths() []int {
	seen := make(map[int]bool, len(Grammars))
	out := make([]int, 0, len(Grammars))
	for _, g := range Grammars {
		if n := g.Len(); !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func hasGrammarLen(n int) bool {
	for _, g := range Grammars {
		if g.Len() == n {
			return true
		}
	}
	return false
}

func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
