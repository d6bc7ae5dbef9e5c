package types

import "fmt"

// PrivacyLevel is the redaction policy applied during capture. It is a closed
// enumeration, not free-form configuration.
type PrivacyLevel string

const (
	// PrivacyAllow records content as-is.
	PrivacyAllow PrivacyLevel = "allow"
	// PrivacyMask redacts all text and image content.
	PrivacyMask PrivacyLevel = "mask"
	// PrivacyMaskUserInput redacts only user-entered content (input fields).
	PrivacyMaskUserInput PrivacyLevel = "mask_user_input"
)

// ParsePrivacyLevel validates and returns a privacy level from its string form.
func ParsePrivacyLevel(s string) (PrivacyLevel, error) {
	switch PrivacyLevel(s) {
	case PrivacyAllow, PrivacyMask, PrivacyMaskUserInput:
		return PrivacyLevel(s), nil
	default:
		return "", fmt.Errorf("unknown privacy level %q", s)
	}
}
