package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalid is wrapped by every validation failure in this package.
var ErrInvalid = errors.New("invalid input")

const (
	maxNameLen       = 255
	maxPartNumberLen = 128
	maxLocationLen   = 255
)

var (
	spaceRe   = regexp.MustCompile(`[\s\p{Zs}]+`)
	integerRe = regexp.MustCompile(`^\+?(\d+)$`)
)

// Clean trims the value and collapses runs of whitespace (including
// full-width spaces) into a single space.
func Clean(raw string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.TrimSpace(raw), " "))
}

// Name validates a machine name.
func Name(raw string) (string, error) {
	return required("name", raw, maxNameLen)
}

// PartNumber validates a part number.
func PartNumber(raw string) (string, error) {
	return required("part number", raw, maxPartNumberLen)
}

// Location validates a storage location.
func Location(raw string) (string, error) {
	return required("location", raw, maxLocationLen)
}

// Quantity parses a stock count. Only whole numbers >= 0 are accepted.
func Quantity(raw string) (int, error) {
	n, err := wholeNumber(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity must be a valid number", ErrInvalid)
	}
	return n, nil
}

// Index parses a zero-based list position as typed by a user.
func Index(raw string) (int, error) {
	n, err := wholeNumber(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid index", ErrInvalid, raw)
	}
	return n, nil
}

func wholeNumber(raw string) (int, error) {
	m := integerRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, ErrInvalid
	}
	return strconv.Atoi(m[1])
}

func required(field, raw string, maxLen int) (string, error) {
	s := Clean(raw)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}
	if utf8.RuneCountInString(s) > maxLen {
		return "", fmt.Errorf("%w: %s is longer than %d characters", ErrInvalid, field, maxLen)
	}
	return s, nil
}
