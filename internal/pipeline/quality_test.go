package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssess_EmptyText(t *testing.T) {
	validator := NewBasicQualityValidator()
	for _, text := range []string{"", "   ", "\n\t "} {
		assessment := validator.Assess(CanonicalDocument{Text: text})
		require.False(t, assessment.Accepted)
		require.Equal(t, 0.0, assessment.Score)
		require.Equal(t, []string{FlagEmptyText}, assessment.Flags)
	}
}

func TestAssess_CleanTextAccepted(t *testing.T) {
	validator := NewBasicQualityValidator()
	text := strings.Repeat("Senior software engineer with experience building distributed systems. ", 5)
	assessment := validator.Assess(CanonicalDocument{Text: text})
	require.True(t, assessment.Accepted)
	require.Equal(t, 1.0, assessment.Score)
	require.Empty(t, assessment.Flags)
}

func TestAssess_PDFMarkersRejected(t *testing.T) {
	validator := NewBasicQualityValidator()
	text := "%PDF-1.4 some words here endobj more words xref table follows words"
	assessment := validator.Assess(CanonicalDocument{Text: text})
	require.False(t, assessment.Accepted)
	require.Contains(t, assessment.Flags, FlagPDFInternalMarkers)
	require.InDelta(t, 0.4, assessment.Score, 0.001)
}

func TestAssess_TwoMarkersNotEnough(t *testing.T) {
	validator := NewBasicQualityValidator()
	text := "document mentions endobj and xref once each but reads like normal prose about engineering work"
	assessment := validator.Assess(CanonicalDocument{Text: text})
	require.NotContains(t, assessment.Flags, FlagPDFInternalMarkers)
	require.True(t, assessment.Accepted)
}

func TestAssess_NonPrintableRatioRejected(t *testing.T) {
	validator := NewBasicQualityValidator()
	var sb strings.Builder
	sb.WriteString("some extracted words ")
	for i := 0; i < 10; i++ {
		sb.WriteRune(0x01)
	}
	assessment := validator.Assess(CanonicalDocument{Text: sb.String()})
	require.False(t, assessment.Accepted)
	require.Contains(t, assessment.Flags, FlagNonPrintableRatioHigh)
}

func TestAssess_AllowsWhitespaceControlChars(t *testing.T) {
	validator := NewBasicQualityValidator()
	text := "line one\nline two\ttabbed\r\nwindows line endings are fine here today"
	assessment := validator.Assess(CanonicalDocument{Text: text})
	require.NotContains(t, assessment.Flags, FlagNonPrintableRatioHigh)
}

func TestAssess_LowLexicalDensityPenalizedNotRejected(t *testing.T) {
	validator := NewBasicQualityValidator()
	text := strings.Repeat("123 456 #$% 789 ", 10) + "ok go"
	assessment := validator.Assess(CanonicalDocument{Text: text})
	require.Contains(t, assessment.Flags, FlagLowLexicalDensity)
	require.True(t, assessment.Accepted)
	require.InDelta(t, 0.8, assessment.Score, 0.001)
}

func TestAssess_Idempotent(t *testing.T) {
	validator := NewBasicQualityValidator()
	doc := CanonicalDocument{Text: "%PDF-1.7 stream endstream endobj words words 123 #!@"}
	first := validator.Assess(doc)
	second := validator.Assess(doc)
	require.Equal(t, first, second)
}
