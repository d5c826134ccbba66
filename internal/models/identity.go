package models

import "strings"

// NormalizeIdentity lowercases and trims email addresses. Phone numbers are
// already plain digits and pass through trimmed.
func NormalizeIdentity(raw string) string {
	key := strings.TrimSpace(raw)
	if strings.Contains(key, "@") {
		key = strings.ToLower(key)
	}
	return key
}
