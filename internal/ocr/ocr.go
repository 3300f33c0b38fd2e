// Package ocr turns receipt files into text. Text recognition itself is an
// external tool; this package only selects and invokes it.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Recognizer converts one receipt file into plain text.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
	Name() string
}

// Registry maps file extensions to recognizers.
type Registry struct {
	byExt map[string]Recognizer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Recognizer)}
}

// Register assigns r to the given extensions. Panics on a duplicate extension.
func (r *Registry) Register(rec Recognizer, exts ...string) {
	for _, ext := range exts {
		key := normalizeExt(ext)
		if _, ok := r.byExt[key]; ok {
			panic("duplicate recognizer extension: " + key)
		}
		r.byExt[key] = rec
	}
}

// For returns the recognizer for path's extension, or nil.
func (r *Registry) For(path string) Recognizer {
	return r.byExt[normalizeExt(filepath.Ext(path))]
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	return r.For(path) != nil
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Recognize dispatches path to its recognizer.
func (r *Registry) Recognize(ctx context.Context, path string) (string, error) {
	rec := r.For(path)
	if rec == nil {
		return "", fmt.Errorf("no recognizer for %q", filepath.Ext(path))
	}
	text, err := rec.Recognize(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", rec.Name(), err)
	}
	return text, nil
}

// DefaultRegistry reads .txt files as already recognized text and sends
// images through tesseract.
func DefaultRegistry(t *Tesseract) *Registry {
	r := NewRegistry()
	r.Register(TextFile{}, ".txt")
	r.Register(t, ".png", ".jpg", ".jpeg", ".tif", ".tiff")
	return r
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// TextFile returns the content of a text file, for receipts recognized elsewhere.
type TextFile struct{}

// Name returns the recognizer name.
func (TextFile) Name() string { return "text" }

// Recognize reads path.
func (TextFile) Recognize(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text receipt: %w", err)
	}
	return string(data), nil
}
