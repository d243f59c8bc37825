package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxHandleLength bounds handle names, which double as file names.
const maxHandleLength = 128

// handleRegex matches valid handle names: letters, digits, dot, dash and
// underscore, starting with a letter or digit (e.g. "default", "catalog_product_view").
var handleRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateHandle validates a handle name for safety and correctness.
// Handles are mapped onto document file names, so anything that could
// escape a module's layout directory is rejected:
//   - No empty names
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateHandle(name string) error {
	if name == "" {
		return New(ErrCodeInvalidHandle, "handle cannot be empty")
	}
	if len(name) > maxHandleLength {
		return New(ErrCodeInvalidHandle, "handle too long (max %d characters)", maxHandleLength)
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidHandle, "handle contains invalid characters: %q", "..")
	}
	if !handleRegex.MatchString(name) {
		return New(ErrCodeInvalidHandle, "invalid handle: %q", name)
	}
	return nil
}

// ValidateHandles validates every handle in names.
func ValidateHandles(names []string) error {
	if len(names) == 0 {
		return New(ErrCodeInvalidInput, "at least one handle is required")
	}
	for _, n := range names {
		if err := ValidateHandle(n); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTemplateRef validates a template reference of the form
// "path/to/file.html" or "Module::path/to/file.html".
//
// Validation rules:
//   - Reference cannot be empty
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateTemplateRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidTemplate, "template reference cannot be empty")
	}

	path := ref
	if i := strings.Index(ref, "::"); i >= 0 {
		if i == 0 {
			return New(ErrCodeInvalidTemplate, "template reference has an empty module: %q", ref)
		}
		path = ref[i+2:]
	}
	if path == "" {
		return New(ErrCodeInvalidTemplate, "template reference has an empty path: %q", ref)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTemplate, "template path contains invalid characters")
		}
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidTemplate, "template path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidTemplate, "template path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidTemplate, "template path cannot contain backslashes")
	}
	return nil
}
