package errors

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ValidateIdentifier validates a Compiler Explorer identifier (compiler, library
// or language id) before it is interpolated into an API path.
//
// The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No path traversal sequences (.., /, \)
//   - Maximum length of 128 characters
//
// Language ids such as "c++" and library ids such as "range-v3" are accepted.
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentifier, "%s cannot be empty", kind)
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidIdentifier, "%s too long (max 128 characters)", kind)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidIdentifier, "%s contains invalid control characters", kind)
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "?", "#"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidIdentifier, "%s contains invalid characters: %q", kind, pattern)
		}
	}

	return nil
}

// shortlinkIDRegex matches the id part of a godbolt.org/z/ link.
var shortlinkIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateShortlinkID validates a shortlink id extracted from a URL.
func ValidateShortlinkID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "shortlink id cannot be empty")
	}
	if !shortlinkIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid shortlink id: %q", id)
	}
	return nil
}

// ValidateDestination validates a local directory that downloaded sources are
// written into. Absolute paths are allowed; traversal segments are not.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidateDestination(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "destination path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidateStruct checks the `validate` struct tags on v and converts the first
// failure into an INVALID_INPUT error keyed by the field's JSON name.
func ValidateStruct(v any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
	})

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Wrap(ErrCodeInvalidInput, err, "invalid arguments")
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return New(ErrCodeInvalidInput, "%s is required", fe.Field())
	case "oneof":
		return New(ErrCodeInvalidInput, "%s must be one of: %s (got %q)", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "min":
		return New(ErrCodeInvalidInput, "%s must have at least %s entries", fe.Field(), fe.Param())
	case "gte", "lte":
		return New(ErrCodeInvalidInput, "%s is out of range (%s %s)", fe.Field(), fe.Tag(), fe.Param())
	default:
		return New(ErrCodeInvalidInput, "%s failed %q validation", fe.Field(), fe.Tag())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
