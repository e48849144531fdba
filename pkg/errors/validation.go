package errors

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// Limits on caller-supplied strings. Item ids end up in SVG id attributes
// and store keys.
const (
	MaxIDLength   = 256
	MaxPathLength = 500
)

var (
	hexColor   = regexp.MustCompile(`^#([[:xdigit:]]{3,4}|[[:xdigit:]]{6}|[[:xdigit:]]{8})$`)
	namedColor = regexp.MustCompile(`^([a-zA-Z]+|(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\))$`)
)

// ValidateItemID rejects empty or overlong ids and ids containing spaces or
// control characters.
func ValidateItemID(id string) error {
	switch {
	case id == "":
		return New(ErrCodeInvalidID, "item id cannot be empty")
	case len(id) > MaxIDLength:
		return New(ErrCodeInvalidID, "item id longer than %d bytes", MaxIDLength)
	case strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		return New(ErrCodeInvalidID, "item id %q contains whitespace or control characters", id)
	}
	return nil
}

// ValidateColor accepts "" (unset), hex colors (#rgb, #rgba, #rrggbb,
// #rrggbbaa), CSS keywords and rgb()/hsl() notation. Anything else could
// break out of an SVG attribute.
func ValidateColor(c string) error {
	if c == "" || hexColor.MatchString(c) || namedColor.MatchString(c) {
		return nil
	}
	return New(ErrCodeInvalidConfig, "invalid color %q", c)
}

// ValidatePath checks a file path given on the command line. It rejects ".."
// components so that outputs stay below the working directory or an
// absolute destination the caller spelled out.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > MaxPathLength:
		return New(ErrCodeInvalidPath, "path longer than %d bytes", MaxPathLength)
	case strings.IndexFunc(path, unicode.IsControl) >= 0:
		return New(ErrCodeInvalidPath, "path contains control characters")
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	if slices.Contains(parts, "..") {
		return New(ErrCodeInvalidPath, "path %q leaves its directory (..)", path)
	}
	return nil
}
