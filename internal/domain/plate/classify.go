package plate

import (
	"fmt"
	"strings"
)

const (
	ConfidenceExact     = 1.0
	ConfidenceCorrected = 0.8

	msgTooShort = "plate text too short"
	msgNoMatch  = "input does not match any recognized Nigerian plate format"
)

// ValidationResult is the outcome of one classification attempt.
type ValidationResult struct {
	Valid            bool    `json:"valid"`
	Input            string  `json:"input"`
	Plate            string  `json:"plate,omitempty"`
	Class            Class   `json:"plate_class,omitempty"`
	JurisdictionCode string  `json:"jurisdiction_code,omitempty"`
	JurisdictionName string  `json:"jurisdiction_name,omitempty"`
	Confidence       float64 `json:"confidence"`
	Corrected        bool    `json:"corrected"`
	Message          string  `json:"message"`
}

// Compact returns the canonical plate without its hyphen.
func (r ValidationResult) Compact() string {
	return strings.ReplaceAll(r.Plate, "-", "")
}

// Classify matches normalized text against the plate grammars. Hyphens in the
// input are ignored, so a canonical plate classifies to itself.
func Classify(text string) ValidationResult {
	compact := strings.ReplaceAll(text, "-", "")

	if len(compact) < minPlateLen {
		return invalid(compact, msgTooShort)
	}
	if !hasGrammarLen(len(compact)) {
		return invalid(compact, msgNoMatch)
	}

	for _, g := range Grammars {
		parts, ok := g.Match(compact)
		if !ok {
			continue
		}
		code := parts[g.Jurisdiction]
		return ValidationResult{
			Valid:            true,
			Input:            compact,
			Plate:            parts[0] + "-" + strings.Join(parts[1:], ""),
			Class:            g.Class,
			JurisdictionCode: code,
			JurisdictionName: JurisdictionName(code),
			Confidence:       ConfidenceExact,
			Message:          fmt.Sprintf("valid Nigerian %s license plate", strings.ToLower(string(g.Class))),
		}
	}

	return invalid(compact, msgNoMatch)
}

// ClassifyCorrected classifies the corrector's output and lowers the
// confidence when correction changed the original text.
func ClassifyCorrected(original, corrected string) ValidationResult {
	res := Classify(corrected)
	if !res.Valid {
		return res
	}
	if strings.ReplaceAll(original, "-", "") != res.Input {
		res.Corrected = true
		res.Confidence = ConfidenceCorrected
		res.Message += " (OCR corrected from " + original + ")"
	}
	return res
}

func invalid(input, msg string) ValidationResult {
	return ValidationResult{
		Valid:      false,
		Input:      input,
		Class:      ClassNone,
		Confidence: 0,
		Message:    msg,
	}
}
