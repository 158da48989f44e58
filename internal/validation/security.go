// Package validation provides security validation functions used when the
// engine resolves project paths and references supplied by config files
// or the CLI, preventing path traversal, command injection via project
// config, and Unicode-based spoofing of file names.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidatePath validates a file path referenced by a project config
// (an input file, a reference, a wildcard directory) to prevent path
// traversal and access to sensitive system directories.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	restrictedPaths := []string{
		"/etc/passwd",
		"/etc/shadow",
		"/proc/",
		"/sys/",
		"/dev/",
		"/root/",
		"/boot/",
	}
	cleanPathLower := strings.ToLower(cleanPath)
	for _, restricted := range restrictedPaths {
		if strings.HasPrefix(cleanPathLower, restricted) {
			return fmt.Errorf("access to restricted path denied: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "~", "%"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// ValidateFileExtension validates a file name's extension against an
// allowlist, used to reject a project config whose input list or output
// names carry an unexpected extension.
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed", ext)
}

// SanitizeInput strips null bytes and control characters from a string
// read out of a project config file before it is echoed back in a
// diagnostic or log line.
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var sanitized strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String()
}

// ValidateUnicodeString rejects strings that carry bidirectional
// override, zero-width, or non-ASCII homoglyph characters, used when
// validating project/config names supplied on the CLI.
func ValidateUnicodeString(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("invalid UTF-8 sequence")
	}

	for i, r := range s {
		switch {
		case isBidiOverride(r):
			return fmt.Errorf("contains bidirectional override character at position %d", i)
		case isZeroWidth(r):
			return fmt.Errorf("contains zero-width character at position %d", i)
		case r > 127:
			return fmt.Errorf("contains potentially confusing non-ASCII character at position %d", i)
		case unicode.IsControl(r):
			return fmt.Errorf("contains control character at position %d", i)
		case r == '�':
			return fmt.Errorf("contains Unicode replacement character at position %d", i)
		}
	}

	return nil
}

// isBidiOverride checks for bidirectional text override characters.
func isBidiOverride(r rune) bool {
	switch r {
	case '‭', '‮', '‬', '⁦', '⁧', '⁨', '⁩':
		return true
	}
	return false
}

// isZeroWidth checks for zero-width characters that could hide content.
func isZeroWidth(r rune) bool {
	switch r {
	case '​', '‌', '‍', '⁠', '⁡', '⁢', '⁣', '⁤', 0xFEFF:
		return true
	}
	return false
}
