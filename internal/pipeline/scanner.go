package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/blogimg-cli/internal/source"
)

// imageExtensions lists recognized image file extensions for directory scans.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// IsImagePath reports whether path has a recognized image extension.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ExpandSources replaces each directory in refs with the image files under
// it, in lexical order. URLs and plain files pass through unchanged, so a
// file is attempted even when its extension is unknown. A non-empty
// outputDir is not descended into unless it is the scanned directory itself.
func ExpandSources(refs []string, outputDir string) ([]string, error) {
	skip := ""
	if outputDir != "" {
		abs, err := filepath.Abs(outputDir)
		if err != nil {
			return nil, fmt.Errorf("resolve output dir: %w", err)
		}
		skip = abs
	}

	var out []string
	for _, ref := range refs {
		if source.IsURL(ref) {
			out = append(out, ref)
			continue
		}
		info, err := os.Stat(ref)
		if err != nil || !info.IsDir() {
			// Missing files surface as per-item load errors.
			out = append(out, ref)
			continue
		}
		found, err := scanDir(ref, skip)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", ref, err)
		}
		out = append(out, found...)
	}
	return out, nil
}

func scanDir(root, skip string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories.
			if path == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if skip != "" {
				if abs, err := filepath.Abs(path); err == nil && abs == skip {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if IsImagePath(path) {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}
