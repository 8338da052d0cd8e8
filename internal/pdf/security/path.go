// Package security keeps document access inside the configured directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines file paths to a configured directory
type PathValidator struct {
	directory string
}

// NewPathValidator creates a validator for the given directory. The
// directory does not need to exist yet.
func NewPathValidator(directory string) (*PathValidator, error) {
	if directory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{directory: directory}, nil
}

// Directory returns the configured directory
func (v *PathValidator) Directory() string {
	return v.directory
}

// Resolve turns path into a clean absolute path inside the configured
// directory. Relative paths are taken relative to the configured directory.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.directory, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// ValidatePath checks that path lies inside the configured directory. Every
// path is rejected while the configured directory does not exist.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	within, err := v.IsWithin(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// IsWithin reports whether path, and the file it points to when it is a
// symlink, lie inside the configured directory. A missing or unreadable
// configured directory is an error.
func (v *PathValidator) IsWithin(path string) (bool, error) {
	info, err := os.Stat(v.directory)
	if err != nil {
		return false, fmt.Errorf("configured directory is not accessible: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("configured directory is not a directory: %s", v.directory)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(v.directory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	dirs := []string{filepath.Clean(absDir)}
	if real, err := filepath.EvalSymlinks(absDir); err == nil {
		dirs = append(dirs, real)
	}

	candidates := []string{filepath.Clean(absPath)}
	if real, err := filepath.EvalSymlinks(absPath); err == nil {
		candidates = append(candidates, real)
	}

	for _, c := range candidates {
		if !insideAny(c, dirs) {
			return false, nil
		}
	}
	return true, nil
}

func insideAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path == dir || strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
