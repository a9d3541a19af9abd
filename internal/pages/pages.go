// Package pages serves the static informational pages (about, donate)
// whose markdown sources live in a configured directory.
package pages

import (
	"fmt"
	"os"
	"path/filepath"

	"classhub/internal/models"
)

// Known page slugs. Anything else is a 404, never a file lookup.
var knownSlugs = map[string]bool{
	"about":  true,
	"donate": true,
}

// Reader loads markdown page content from disk.
type Reader struct {
	dir string
}

// NewReader returns a Reader rooted at dir.
func NewReader(dir string) (*Reader, error) {
	if dir == "" {
		return nil, fmt.Errorf("pages: directory is required")
	}
	return &Reader{dir: dir}, nil
}

// Read returns the raw markdown for a known slug.
func (r *Reader) Read(slug string) (string, error) {
	if !knownSlugs[slug] {
		return "", models.NewNotFoundError("Page", slug)
	}
	data, err := os.ReadFile(filepath.Join(r.dir, slug+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("Page", slug)
		}
		return "", models.NewInternalError(err)
	}
	return string(data), nil
}
