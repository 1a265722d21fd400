package utils

import (
	"net/netip"
	"regexp"
	"strings"
	"unicode/utf8"
)

const MaxUserAgentLength = 512

var (
	lowerRegex = regexp.MustCompile(`[a-z]`)
	upperRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex = regexp.MustCompile(`\d`)

	mobileRegex = regexp.MustCompile(`(?i)mobile`)
	tabletRegex = regexp.MustCompile(`(?i)tablet`)
)

// ValidatePassword checks complexity: 8-128 characters with at least one
// lowercase letter, one uppercase letter and one digit
func ValidatePassword(password string) bool {
	n := utf8.RuneCountInString(password)
	if n < 8 || n > 128 {
		return false
	}
	return lowerRegex.MatchString(password) &&
		upperRegex.MatchString(password) &&
		digitRegex.MatchString(password)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DetectPlatform classifies a user agent as mobile, tablet or web
func DetectPlatform(userAgent string) string {
	switch {
	case mobileRegex.MatchString(userAgent):
		return "mobile"
	case tabletRegex.MatchString(userAgent):
		return "tablet"
	default:
		return "web"
	}
}

// NormalizeIP strips ports and zones from an address. Unparseable input is
// returned trimmed.
func NormalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		return addrPort.Addr().WithZone("").String()
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return addr.WithZone("").String()
	}
	return raw
}

// TruncateUserAgent trims overly long user agents to MaxUserAgentLength runes.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	runes := []rune(ua)
	return string(runes[:MaxUserAgentLength])
}
