package parser

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// ExpandGlobs expands scan arguments into a deduplicated, sorted list of
// paths. Arguments that match nothing are kept as-is so the caller can decide
// how to treat a missing path.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			add(pattern)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}

	slices.Sort(result)
	return result, nil
}

// ListFiles returns the regular files under dir in lexical order. Without
// recursive only the immediate children are listed. Directories whose base
// name is in exclude are skipped. Unreadable subdirectories are skipped
// rather than aborting the walk.
func ListFiles(dir string, recursive bool, exclude []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !recursive || slices.Contains(exclude, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
