package domain

// Numbers shorter than maskMinLength are too short to redact safely
// and are returned as-is.
const (
	maskMinLength   = 10
	maskKeepLeading = 6
	maskKeepTrail   = 4
	maskPlaceholder = "**"
)

// MaskNumber hides the interior of a phone number for public display,
// keeping the leading and trailing digits visible. The masked form
// never exposes digits the unmasked input did not contain.
func MaskNumber(number string) string {
	if len(number) < maskMinLength {
		return number
	}
	return number[:maskKeepLeading] + maskPlaceholder + number[len(number)-maskKeepTrail:]
}
