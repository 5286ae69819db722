// internal/pkg/referralcode/code.go
package referralcode

import "strings"

// Suffix is the constant tag appended to every generated code.
const Suffix = "123"

// DefaultBaseURL is the quote page affiliate links point at.
const DefaultBaseURL = "https://edg-informatique.com/devis"

// Generate derives a stable, human-shareable referral code from an identity
// email: the local part, lower-cased, stripped to [a-z0-9], plus a constant
// suffix. Deterministic by construction; two emails whose local parts
// normalize identically collide, which is a known accepted limitation.
func Generate(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	local = strings.ToLower(local)

	var b strings.Builder
	b.Grow(len(local) + len(Suffix))
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	b.WriteString(Suffix)
	return b.String()
}

// Link builds the shareable referral link for an identity email. An empty
// baseURL falls back to DefaultBaseURL.
func Link(baseURL, email string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return baseURL + "?ref=" + Generate(email)
}
