package middleware

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

// MaxPromptLength caps the renovation description, in runes.
const MaxPromptLength = 2000

// ValidateURL validates URLs the server itself is about to fetch
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}

	// SSRF protection
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("URL host cannot be empty")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("localhost/internal IPs are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		return ValidateIP(ip)
	}

	return nil
}

// ValidateIP rejects loopback, link-local, unspecified and private addresses.
// Hostnames are checked again at dial time with the resolved address.
func ValidateIP(ip net.IP) error {
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("localhost/internal IPs are not allowed")
	}
	if ip.IsPrivate() {
		return fmt.Errorf("private IP ranges are not allowed")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidatePrompt checks the length of an already sanitized prompt
func ValidatePrompt(prompt string) error {
	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return fmt.Errorf("prompt too long: %d characters (max %d)", n, MaxPromptLength)
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
