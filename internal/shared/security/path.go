package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathEscape indicates the resolved path would escape the results directory.
	ErrPathEscape = errors.New("path escapes base directory")
	// ErrEmptyName is returned when an output base name reduces to nothing.
	ErrEmptyName = errors.New("output name is empty")
)

// ResolveWithin joins elems under base and rejects results that traverse
// outside of it. The returned path is absolute.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}

	cleanBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	target, err := filepath.Abs(filepath.Join(append([]string{cleanBase}, elems...)...))
	if err != nil {
		return "", fmt.Errorf("resolve target path: %w", err)
	}

	rel, err := filepath.Rel(cleanBase, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}

	return target, nil
}

// ResolveOutputBase turns a user supplied or derived report base name into an
// absolute path without extension. Absolute names are honoured as given;
// relative names are confined to resultsDir.
func ResolveOutputBase(resultsDir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	return ResolveWithin(resultsDir, name)
}

// SafeFileComponent replaces characters that are awkward in file names (the
// port separator in "host:8443", path separators) with underscores.
func SafeFileComponent(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
