// Package extract pulls numeric one-time codes out of free-form
// message text. Extraction is pure: no state, no I/O, same input
// always yields the same result.
package extract

import (
	"regexp"
	"strconv"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

// Senders pad messages with bidi and zero-width marks to defeat naive
// parsing; they are stripped before any pattern runs.
var controlChars = regexp.MustCompile("[​-‏‪-‮⁦-⁩]")

var (
	// Keyword, then at most 10 non-digits, then a 3-8 digit run that
	// may contain internal hyphens or spaces.
	keywordPattern = regexp.MustCompile(`(?i)(?:otp|code|pin|password|verif(?:y|ication))[^0-9]{0,10}([0-9][0-9\- ]{1,9}[0-9])`)

	// The same run shape immediately preceding a keyword.
	reversePattern = regexp.MustCompile(`(?i)([0-9][0-9\- ]{1,9}[0-9])[^0-9]{0,10}(?:otp|code|pin|password|verif(?:y|ication))`)

	// Standalone 2-4 digit run, optionally hyphenated with another.
	genericPattern = regexp.MustCompile(`\b[0-9]{2,4}(?:[- ]?[0-9]{2,4})?\b`)

	nonDigits = regexp.MustCompile(`[^0-9]`)
)

// Keyword-anchored stages demand at least 3 digits; the generic
// fallback accepts the short 2-digit runs the original patterns allow.
const (
	minKeywordCodeLen = 3
	minGenericCodeLen = 2
	maxCodeLen        = 8
)

// Options tune the heuristics. The year range is a guess at what a
// false-positive date looks like, not a domain rule; keep it
// adjustable.
type Options struct {
	YearRejectMin int
	YearRejectMax int
}

// DefaultOptions mirror production settings.
func DefaultOptions() Options {
	return Options{YearRejectMin: 1900, YearRejectMax: 2099}
}

// Extractor runs the three-stage cascade. Safe for concurrent use.
type Extractor struct {
	opts Options
}

// New builds an Extractor with the given options.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Extract applies the cascade and short-circuits on the first stage
// that yields an acceptable candidate. A 4-digit candidate inside the
// year-reject range is never returned, even when it is the only one;
// in that case the result is none.
func (e *Extractor) Extract(text string) domain.ExtractedOTP {
	cleaned := controlChars.ReplaceAllString(text, "")

	if m := keywordPattern.FindStringSubmatch(cleaned); m != nil {
		if code, ok := e.accept(m[1], minKeywordCodeLen); ok {
			return domain.ExtractedOTP{Code: code, Confidence: domain.ConfidenceKeyword}
		}
	}

	if m := reversePattern.FindStringSubmatch(cleaned); m != nil {
		if code, ok := e.accept(m[1], minKeywordCodeLen); ok {
			return domain.ExtractedOTP{Code: code, Confidence: domain.ConfidenceReverse}
		}
	}

	for _, m := range genericPattern.FindAllString(cleaned, -1) {
		if code, ok := e.accept(m, minGenericCodeLen); ok {
			return domain.ExtractedOTP{Code: code, Confidence: domain.ConfidenceGeneric}
		}
	}

	return domain.ExtractedOTP{Confidence: domain.ConfidenceNone}
}

// accept strips separators from a raw candidate and applies the length
// and year-rejection rules.
func (e *Extractor) accept(raw string, minLen int) (string, bool) {
	code := nonDigits.ReplaceAllString(raw, "")
	if len(code) < minLen || len(code) > maxCodeLen {
		return "", false
	}
	if e.looksLikeYear(code) {
		return "", false
	}
	return code, true
}

func (e *Extractor) looksLikeYear(code string) bool {
	if len(code) != 4 {
		return false
	}
	v, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return v >= e.opts.YearRejectMin && v <= e.opts.YearRejectMax
}
