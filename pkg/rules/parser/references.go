package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultMaxExpansions bounds file-reference expansion per document.
// The counter covers the whole expansion, including references introduced
// by inlined files, so chains and cycles terminate deterministically.
const DefaultMaxExpansions = 50

// referencePattern matches #[[file:relative/path]] references in content.
var referencePattern = regexp.MustCompile(`#\[\[file:([^\]]+)\]\]`)

// ReferenceResolver substitutes #[[file:...]] references with the referenced
// file's contents. Resolution never fails: blocked, missing, and unreadable
// targets are rendered as inline markers so prompt assembly is never
// interrupted.
type ReferenceResolver struct {
	allowedDirs   []string
	maxExpansions int
}

// NewReferenceResolver creates a resolver that only inlines files under the
// given directories. An empty allow-list blocks every reference.
func NewReferenceResolver(allowedDirs []string) *ReferenceResolver {
	resolved := make([]string, 0, len(allowedDirs))
	for _, dir := range allowedDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		resolved = append(resolved, abs)
	}
	return &ReferenceResolver{
		allowedDirs:   resolved,
		maxExpansions: DefaultMaxExpansions,
	}
}

// WithMaxExpansions sets the per-document expansion cap.
func (r *ReferenceResolver) WithMaxExpansions(max int) *ReferenceResolver {
	if max > 0 {
		r.maxExpansions = max
	}
	return r
}

// Resolve expands all file references in content. Relative paths resolve
// against baseDir. Inlined content is itself scanned for references until
// the expansion cap is reached; remaining references past the cap are
// replaced with blocked markers.
func (r *ReferenceResolver) Resolve(content, baseDir string) string {
	expansions := 0

	for referencePattern.MatchString(content) {
		content = referencePattern.ReplaceAllStringFunc(content, func(ref string) string {
			relPath := strings.TrimSpace(referencePattern.FindStringSubmatch(ref)[1])

			if expansions >= r.maxExpansions {
				return blockedMarker(relPath)
			}
			expansions++

			return r.expandOne(relPath, baseDir)
		})
	}

	return content
}

// expandOne resolves a single reference to its substitution text.
func (r *ReferenceResolver) expandOne(relPath, baseDir string) string {
	target, err := filepath.Abs(filepath.Join(baseDir, relPath))
	if err != nil {
		return errorMarker(relPath)
	}

	if !r.isAllowed(target) {
		return blockedMarker(relPath)
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return notFoundMarker(relPath)
		}
		return errorMarker(relPath)
	}
	if info.IsDir() {
		return errorMarker(relPath)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return errorMarker(relPath)
	}

	return string(data)
}

// isAllowed reports whether target falls under one of the allowed
// directories after path cleaning.
func (r *ReferenceResolver) isAllowed(target string) bool {
	for _, dir := range r.allowedDirs {
		rel, err := filepath.Rel(dir, target)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..") {
			return true
		}
	}
	return false
}

func blockedMarker(path string) string {
	return fmt.Sprintf("[BLOCKED: %s]", path)
}

func notFoundMarker(path string) string {
	return fmt.Sprintf("[NOT FOUND: %s]", path)
}

func errorMarker(path string) string {
	return fmt.Sprintf("[ERROR READING: %s]", path)
}
