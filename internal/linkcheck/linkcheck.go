// Package linkcheck verifies that internal references in a generated docs
// tree resolve to files that actually exist. External links are never
// fetched.
package linkcheck

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kshvakov/docprep/internal/frontmatter"
	"github.com/kshvakov/docprep/internal/logfields"
	"github.com/kshvakov/docprep/internal/markdown"
)

// Issue is one broken internal reference.
type Issue struct {
	// File is the markdown file containing the link, relative to the
	// checked root.
	File string
	// Target is the link destination as written.
	Target string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: broken link %q", i.File, i.Target)
}

// Check walks every markdown file under root and returns the internal links
// whose targets do not exist. Links that cannot be verified against the
// tree (external URLs, anchors, site-absolute paths, paths escaping the
// root) are skipped.
func Check(root string) ([]Issue, error) {
	var issues []Issue

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		_, body := frontmatter.Parse(string(data))

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		for _, link := range markdown.ExtractLinks([]byte(body)) {
			if !checkTarget(root, path.Dir(rel), link.Destination) {
				issues = append(issues, Issue{File: rel, Target: link.Destination})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].File != issues[j].File {
			return issues[i].File < issues[j].File
		}
		return issues[i].Target < issues[j].Target
	})

	slog.Debug("Link check complete", logfields.Path(root), logfields.Count(len(issues)))
	return issues, nil
}

// checkTarget reports whether a link destination resolves inside the tree.
// Unverifiable targets count as fine.
func checkTarget(root, fromDir, target string) bool {
	if target == "" ||
		strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "mailto:") ||
		strings.HasPrefix(target, "#") ||
		strings.HasPrefix(target, "/") {
		return true
	}

	// Drop any fragment
	if idx := strings.Index(target, "#"); idx != -1 {
		target = target[:idx]
		if target == "" {
			return true
		}
	}

	resolved := path.Join(fromDir, target)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		// Points above the checked tree; nothing to verify against
		return true
	}

	full := filepath.Join(root, filepath.FromSlash(resolved))

	// Directory-style URLs resolve to the directory's index document
	if strings.HasSuffix(target, "/") {
		return fileExists(filepath.Join(full, "index.md"))
	}

	if path.Ext(resolved) != "" {
		return fileExists(full)
	}

	// Extensionless: either a file or a directory with an index
	return fileExists(full) || fileExists(filepath.Join(full, "index.md"))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
