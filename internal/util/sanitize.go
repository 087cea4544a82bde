package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLogValueLen caps user-supplied values written to logs.
const MaxLogValueLen = 200

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// SanitizeForLog collapses control characters and newlines in user content
// to single spaces and truncates the result to MaxLogValueLen bytes.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = controlChars.ReplaceAllString(s, " ")
	return Truncate(s, MaxLogValueLen)
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
