package pipeline

import (
	"math"
	"strings"
	"unicode"
)

const (
	FlagEmptyText             = "empty_text"
	FlagPDFInternalMarkers    = "pdf_internal_markers"
	FlagNonPrintableRatioHigh = "non_printable_ratio_high"
	FlagLowLexicalDensity     = "low_lexical_density"
)

var pdfStructuralMarkers = []string{"%PDF-", "endobj", "xref", "stream", "endstream"}

// QualityValidator scores extracted text and flags defects.
type QualityValidator interface {
	Assess(doc CanonicalDocument) QualityAssessment
}

// BasicQualityValidator is deterministic and makes no external calls, so the
// same canonical document always yields the same assessment.
type BasicQualityValidator struct{}

func NewBasicQualityValidator() *BasicQualityValidator {
	return &BasicQualityValidator{}
}

func (v *BasicQualityValidator) Assess(doc CanonicalDocument) QualityAssessment {
	text := doc.Text
	if strings.TrimSpace(text) == "" {
		return QualityAssessment{Accepted: false, Score: 0.0, Flags: []string{FlagEmptyText}}
	}

	var flags []string

	markerHits := 0
	for _, marker := range pdfStructuralMarkers {
		if strings.Contains(text, marker) {
			markerHits++
		}
	}
	if markerHits >= 3 {
		flags = append(flags, FlagPDFInternalMarkers)
	}

	runes := []rune(text)
	nonPrintable := 0
	for _, r := range runes {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			nonPrintable++
		}
	}
	if float64(nonPrintable)/float64(max(1, len(runes))) > 0.02 {
		flags = append(flags, FlagNonPrintableRatioHigh)
	}

	tokens := strings.Fields(text)
	if float64(countAlphaWords(text))/float64(max(1, len(tokens))) < 0.4 {
		flags = append(flags, FlagLowLexicalDensity)
	}

	score := 1.0
	rejected := false
	for _, flag := range flags {
		switch flag {
		case FlagPDFInternalMarkers:
			score -= 0.6
			rejected = true
		case FlagNonPrintableRatioHigh:
			score -= 0.25
			rejected = true
		case FlagLowLexicalDensity:
			score -= 0.2
		}
	}
	score = math.Round(math.Max(0, score)*1000) / 1000

	return QualityAssessment{Accepted: !rejected, Score: score, Flags: flags}
}

// countAlphaWords counts runs of 2+ consecutive ASCII letters.
func countAlphaWords(text string) int {
	count := 0
	run := 0
	for _, r := range text {
		if unicode.IsLetter(r) && r < 128 {
			run++
			continue
		}
		if run >= 2 {
			count++
		}
		run = 0
	}
	if run >= 2 {
		count++
	}
	return count
}
