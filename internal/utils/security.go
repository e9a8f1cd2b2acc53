package contextutils

import (
	"strings"
)

// MaskEmail masks the local part of an email address for logging.
// "john.doe@example.com" becomes "j******e@example.com".
func MaskEmail(email string) string {
	if email == "" {
		return "[EMPTY]"
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return strings.Repeat("*", len(email))
	}

	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + domain
	}

	return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + domain
}

// DisplayNameFromEmail derives a human readable name from the local part of an
// email address: dots become spaces and every word is title-cased.
func DisplayNameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}

	local = strings.ReplaceAll(local, ".", " ")

	var b strings.Builder
	b.Grow(len(local))
	startOfWord := true
	for _, r := range local {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		switch {
		case isLetter && startOfWord:
			b.WriteString(strings.ToUpper(string(r)))
			startOfWord = false
		case isLetter:
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
			startOfWord = true
		}
	}
	return b.String()
}
