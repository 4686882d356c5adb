// Package naming derives stable identifiers and display names from
// AppImage filenames. Listing reconstructs entries from storage contents
// alone, so both functions must be deterministic: the same source filename
// always maps to the same id.
package naming

import (
	"path/filepath"
	"strings"
)

// DeriveName turns a bundle filename into a display name: the extension is
// dropped, every character outside ASCII letters, digits, space, '-' and
// '_' becomes a space, and whitespace runs collapse to single spaces.
// A filename with no recognizable characters yields "".
func DeriveName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return r
		default:
			return ' '
		}
	}, stem)

	return strings.Join(strings.Fields(mapped), " ")
}

// Sanitize maps a display name to a filesystem-safe id: every character
// outside ASCII alphanumerics, '-' and '_' becomes '-', leading and
// trailing '-' are trimmed, and the result is lower-cased. Sanitize applied
// to a name produced by DeriveName yields the same id at import time and at
// list time; this determinism replaces a persisted id index.
func Sanitize(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)

	return strings.ToLower(strings.Trim(mapped, "-"))
}
