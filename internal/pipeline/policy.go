package pipeline

import "strings"

const (
	ReasonNotApplicable  = "ocr_not_applicable"
	ReasonDefaultOn      = "configured_default_on"
	ReasonDefaultOff     = "configured_default_off"
	ReasonQualityRetry   = "quality_gate_retry"
	defaultRetryMinChars = 120
)

// retryFlags are the quality flags that indicate a failed plain extraction
// worth re-running with OCR.
var retryFlags = map[string]struct{}{
	FlagPDFInternalMarkers:    {},
	FlagNonPrintableRatioHigh: {},
	FlagEmptyText:             {},
}

// PolicyStrategy decides whether OCR-enhanced extraction should be attempted
// and whether a quality failure warrants a second pass. OCR is off by default
// so that the common path stays cheap; scanned PDFs that leak binary markers
// instead of text get recovered through the retry policy.
type PolicyStrategy struct {
	defaultOCREnabled  bool
	autoRetryOnFailure bool
	retryMinTextLength int
}

type RetryContext struct {
	QualityFlags   []string
	ExtractedText  string
	PreviousPolicy IngestionPolicy
}

func NewPolicyStrategy(defaultOCREnabled, autoRetryOnFailure bool, retryMinTextLength int) *PolicyStrategy {
	if retryMinTextLength <= 0 {
		retryMinTextLength = defaultRetryMinChars
	}
	return &PolicyStrategy{
		defaultOCREnabled:  defaultOCREnabled,
		autoRetryOnFailure: autoRetryOnFailure,
		retryMinTextLength: retryMinTextLength,
	}
}

func (s *PolicyStrategy) InitialPolicy(doc InputDocument) IngestionPolicy {
	if !isOCRCandidate(doc.MediaType) {
		return IngestionPolicy{OCREnabled: false, DecisionReason: ReasonNotApplicable}
	}
	if s.defaultOCREnabled {
		return IngestionPolicy{OCREnabled: true, DecisionReason: ReasonDefaultOn}
	}
	return IngestionPolicy{OCREnabled: false, DecisionReason: ReasonDefaultOff}
}

// RetryPolicy returns nil when no retry is warranted.
func (s *PolicyStrategy) RetryPolicy(doc InputDocument, rc RetryContext) *IngestionPolicy {
	if !s.autoRetryOnFailure {
		return nil
	}
	if rc.PreviousPolicy.OCREnabled {
		return nil
	}
	if !isOCRCandidate(doc.MediaType) {
		return nil
	}
	if !s.shouldRetry(rc) {
		return nil
	}
	return &IngestionPolicy{OCREnabled: true, DecisionReason: ReasonQualityRetry}
}

func (s *PolicyStrategy) shouldRetry(rc RetryContext) bool {
	for _, flag := range rc.QualityFlags {
		if _, ok := retryFlags[flag]; ok {
			return true
		}
	}
	return len(strings.TrimSpace(rc.ExtractedText)) < s.retryMinTextLength
}

func isOCRCandidate(mediaType string) bool {
	return mediaType == "application/pdf" || strings.HasPrefix(mediaType, "image/")
}
