package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateCellName validates a component or cell name.
// Names end up as cache keys, file names and GDS structure names, so the
// rules are conservative:
//   - No empty names
//   - Maximum length of 256 characters
//   - No control characters, whitespace or path separators
func ValidateCellName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "cell name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "cell name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "cell name %q contains whitespace or control characters", name)
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "cell name %q cannot contain path separators", name)
	}

	return nil
}

// portNameRegex matches port names such as o1, e2, pol1_e3 or in_0.
var portNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// ValidatePortName validates a port name.
// Netlists address ports as "instance,port", so commas are rejected.
func ValidatePortName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "port name cannot be empty")
	}
	if !portNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid port name: %q", name)
	}
	return nil
}

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
