// Package ingest loads documentation sources into the knowledge store.
// It runs offline (docschat ingest), never at request time.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File is one documentation page read from disk.
type File struct {
	Content string
	URL     string
}

// LoadDir walks dir recursively and reads every .md and .mdx file.
// Each file's URL is baseURL plus its slash-separated path relative
// to dir.
func LoadDir(dir, baseURL string) ([]File, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving docs directory: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isMarkdown(d.Name()) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", path, err)
		}

		files = append(files, File{
			Content: string(content),
			URL:     baseURL + filepath.ToSlash(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking docs directory: %w", err)
	}
	return files, nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdx":
		return true
	}
	return false
}
