// Package inbox manages the directory of receipts waiting to be parsed.
package inbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultDir is the inbox directory relative to the project root.
const DefaultDir = "inbox"

const (
	processedDir = "processed"
	reviewDir    = "review"
)

// FileInfo describes a receipt file in the inbox.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns the files in dir accepted by supports, sorted by name.
// A missing dir yields no files. Subdirectories are skipped.
func Scan(dir string, supports func(path string) bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if supports != nil && !supports(path) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{Name: e.Name(), Path: path, Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// MarkProcessed moves a reliably parsed receipt to <dir>/processed/.
func MarkProcessed(dir, fileName string) error {
	return move(dir, fileName, processedDir)
}

// MarkReview moves a receipt needing manual review to <dir>/review/.
func MarkReview(dir, fileName string) error {
	return move(dir, fileName, reviewDir)
}

// ProcessedPath returns where MarkProcessed puts fileName.
func ProcessedPath(dir, fileName string) string {
	return filepath.Join(dir, processedDir, fileName)
}

// ReviewPath returns where MarkReview puts fileName.
func ReviewPath(dir, fileName string) string {
	return filepath.Join(dir, reviewDir, fileName)
}

func move(dir, fileName, sub string) error {
	dstDir := filepath.Join(dir, sub)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating %s dir: %w", sub, err)
	}
	src := filepath.Join(dir, fileName)
	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", fileName, sub, err)
	}
	return nil
}
