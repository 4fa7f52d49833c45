package domain

// Confidence records which extraction stage produced a code. It is
// display metadata only; routing never branches on it.
type Confidence string

const (
	ConfidenceKeyword Confidence = "keyword"
	ConfidenceReverse Confidence = "reverse"
	ConfidenceGeneric Confidence = "generic"
	ConfidenceNone    Confidence = "none"
)

// ExtractedOTP is the outcome of running the heuristic cascade over a
// message body. Code is empty when nothing matched. Values are never
// mutated after extraction.
type ExtractedOTP struct {
	Code       string
	Confidence Confidence
}

// Found reports whether a code was extracted.
func (e ExtractedOTP) Found() bool {
	return e.Code != ""
}
