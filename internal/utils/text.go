package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonDigits = regexp.MustCompile(`\D+`)

// StripDiacritics removes combining marks, so "Mãe" becomes "Mae"
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize strips diacritics and surrounding whitespace but keeps case
func Normalize(s string) string {
	return strings.TrimSpace(StripDiacritics(s))
}

// CommandKey is the case-folded form used to compare command words
func CommandKey(s string) string {
	return strings.ToUpper(Normalize(s))
}

// IsCommand reports whether s matches any of the given command words
func IsCommand(s string, words ...string) bool {
	key := CommandKey(s)
	for _, w := range words {
		if key == CommandKey(w) {
			return true
		}
	}
	return false
}

// OnlyDigits drops every non-digit character
func OnlyDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// IsOnlyDigits reports whether the trimmed text is a non-empty run of digits
func IsOnlyDigits(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// StripWhatsAppPrefix removes a leading "whatsapp:" in any case
func StripWhatsAppPrefix(addr string) string {
	addr = strings.TrimSpace(addr)
	if len(addr) >= 9 && strings.EqualFold(addr[:9], "whatsapp:") {
		return strings.TrimSpace(addr[9:])
	}
	return addr
}

// WhatsAppAddress ensures the "whatsapp:" prefix Twilio expects
func WhatsAppAddress(addr string) string {
	bare := StripWhatsAppPrefix(addr)
	if bare == "" {
		return ""
	}
	return "whatsapp:" + bare
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
