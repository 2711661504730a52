package markdown

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/quietpages/bookchat/internal/core/ports/driving"
)

// IsMarkdown reports whether the file name has a markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// LoadDir reads every markdown file under root in lexical path order.
// Hidden files and directories are skipped. Paths are relative to root and
// use forward slashes.
func LoadDir(fsys fs.FS, root string) ([]driving.SourceDocument, error) {
	if root == "" {
		root = "."
	}

	var docs []driving.SourceDocument
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMarkdown(name) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}

		rel := strings.TrimPrefix(p, root)
		rel = strings.TrimPrefix(rel, "/")
		if root == "." {
			rel = p
		}
		docs = append(docs, driving.SourceDocument{Path: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load markdown from %s: %w", root, err)
	}

	return docs, nil
}
