package graph

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
)

const (
	fallbackRationale = "Fallback orientation used because parsing failed."
	defaultRationale  = "Orientation inferred from CV and job description."
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func neutralOrientation(rationale string) OrientationDecision {
	return OrientationDecision{
		ATSWeight:       0.34,
		RecruiterWeight: 0.33,
		TechnicalWeight: 0.33,
		Rationale:       rationale,
	}
}

// parseOrientation extracts the orientation decision from raw model output.
// A direct JSON parse is tried first, then the first {...} substring; when
// neither yields an object the neutral default applies. Weights are coerced,
// renormalized to sum to 1 and rounded to 3 decimals.
func parseOrientation(rawOutput string) OrientationDecision {
	parsed := extractJSONObject(rawOutput)
	if parsed == nil {
		return neutralOrientation(fallbackRationale)
	}

	ats := coerceWeight(parsed["ats_weight"], 0.34)
	recruiter := coerceWeight(parsed["recruiter_weight"], 0.33)
	technical := coerceWeight(parsed["technical_weight"], 0.33)

	total := math.Max(ats+recruiter+technical, 1e-6)
	ats = round3(ats / total)
	recruiter = round3(recruiter / total)
	technical = round3(technical / total)

	rationale := defaultRationale
	if raw, ok := parsed["rationale"].(string); ok && strings.TrimSpace(raw) != "" {
		rationale = strings.TrimSpace(raw)
	}

	return OrientationDecision{
		ATSWeight:       ats,
		RecruiterWeight: recruiter,
		TechnicalWeight: technical,
		Rationale:       rationale,
	}
}

func extractJSONObject(rawOutput string) map[string]interface{} {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(rawOutput), &parsed); err == nil {
		return parsed
	}
	snippet := jsonObjectPattern.FindString(rawOutput)
	if snippet == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(snippet), &parsed); err != nil {
		return nil
	}
	return parsed
}

func coerceWeight(value interface{}, fallback float64) float64 {
	number, ok := value.(float64)
	if !ok {
		return fallback
	}
	if number < 0 {
		return 0
	}
	return number
}

func round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
