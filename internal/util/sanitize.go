package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// SanitizeForLog removes control characters and newlines from user content before logging.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return controlChars.ReplaceAllString(s, " ")
}

// Truncate sanitizes s and cuts it to at most max bytes without splitting
// a multi-byte rune.
func Truncate(s string, max int) string {
	s = SanitizeForLog(s)
	if max < 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// MaskEmail keeps the first character of the local part and the domain so
// voter addresses can appear in logs without being fully disclosed.
func MaskEmail(email string) string {
	email = SanitizeForLog(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
