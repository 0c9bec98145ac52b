package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FindMediaFiles finds files in dir accepted by match. Subdirectories are
// searched only when recursive is set. Unreadable entries are skipped.
func FindMediaFiles(dir string, recursive bool, match func(string) bool) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory path cannot be empty")
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", dir)
	}

	var files []string

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if entry.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if match == nil || match(path) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", dir, err)
	}

	return files, nil
}

// ExpandTargets turns command line arguments into a list of files. Files are
// kept as given, whether or not match accepts them; directories are replaced
// by the matching files they contain. Duplicates are dropped and the result
// is sorted.
func ExpandTargets(args []string, recursive bool, match func(string) bool) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Missing paths are passed through so the caller reports them.
			add(arg)
			continue
		}
		files, err := FindMediaFiles(arg, recursive, match)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}

	sort.Strings(out)
	return out, nil
}
