package validator

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB. Nobody needs a longer question.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "QX32_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("question exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("question contains invalid UTF-8 sequences")
)

// Sanitize cleans a question received from a network adapter using the
// default size limit (overridable through QX32_MAX_INPUT_SIZE).
func Sanitize(input string) (string, error) {
	return SanitizeWithLimit(input, maxInputSize())
}

// SanitizeWithLimit enforces limit, validates UTF-8 and strips control characters.
// Line breaks and tabs are folded into spaces since a question is a single line.
func SanitizeWithLimit(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	// Reject rather than truncate: a truncated question hashes to a different verdict.
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(' ')
		case unicode.IsControl(r):
			// ESC, NUL, BEL: would corrupt the operator's terminal.
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
