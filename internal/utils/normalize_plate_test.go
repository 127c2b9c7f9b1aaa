package utils

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "with spaces",
			input:    "KTS 123 AB",
			expected: "KTS123AB",
		},
		{
			name:     "lowercase",
			input:    "kts123ab",
			expected: "KTS123AB",
		},
		{
			name:     "with dashes",
			input:    "KTS-123-AB",
			expected: "KTS123AB",
		},
		{
			name:     "repeated dashes",
			input:    "KT--234---KTN",
			expected: "KT234KTN",
		},
		{
			name:     "mixed case with spaces",
			input:    "kTs 123 aB",
			expected: "KTS123AB",
		},
		{
			name:     "already normalized",
			input:    "KTS123AB",
			expected: "KTS123AB",
		},
		{
			name:     "with leading/trailing spaces",
			input:    "  FG 234 KT  ",
			expected: "FG234KT",
		},
		{
			name:     "punctuation from OCR",
			input:    "KTS.123|AB!",
			expected: "KTS123AB",
		},
		{
			name:     "tabs and newlines",
			input:    "KTS\t123\nAB",
			expected: "KTS123AB",
		},
		{
			name:     "full width glyphs",
			input:    "ＫＴＳ１２３ＡＢ",
			expected: "KTS123AB",
		},
		{
			name:     "accented letters",
			input:    "KTS-1Ó3-ÀB",
			expected: "KTS1O3AB",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "only symbols",
			input:    "-- ** --",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePlate(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePlate(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizePlateIdempotent(t *testing.T) {
	f := gofakeit.New(7)
	for i := 0; i < 500; i++ {
		raw := f.Password(true, true, true, true, true, 16)
		if i%3 == 0 {
			raw = f.Sentence(4)
		}
		once := NormalizePlate(raw)
		if twice := NormalizePlate(once); twice != once {
			t.Fatalf("NormalizePlate not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestPlateKey(t *testing.T) {
	if PlateKey("kts-123ab") != PlateKey("KTS123AB") {
		t.Errorf("PlateKey should match hyphenated and compact forms")
	}
}
