package util

import (
	"regexp"
	"unicode"
)

// Characters WebFinger accepts in a local-part without percent-encoding
var webFingerUserRegex = regexp.MustCompile(`^[A-Za-z0-9\-._~!$&'()*+,;=]+$`)

// IsValidWebFingerUsername reports whether a username can appear in a
// WebFinger acct: resource as-is. Anything outside the unreserved and
// sub-delims sets (umlauts, CJK, emoji, spaces) would need
// percent-encoding and is rejected, as are control characters.
//
// Returns (true, "") on success, otherwise (false, reason).
func IsValidWebFingerUsername(username string) (bool, string) {
	if username == "" {
		return false, "Username must be at least 1 character"
	}

	if !webFingerUserRegex.MatchString(username) {
		return false, "Username contains invalid characters. Only A-Z, a-z, 0-9, and -._~!$&'()*+,;= are allowed"
	}

	// The regex already excludes these; kept as a guard against regex edits
	for _, r := range username {
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return false, "Username contains non-printable characters"
		}
	}

	return true, ""
}
