package mediaprops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Resolve returns the absolute form of path and checks that something exists
// there. The check is advisory: the engine re-validates on every call and
// its own not-found report is translated the same way.
func Resolve(path string) (string, error) {
	if path == "" {
		return "", &FileNotFoundError{Path: path}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &IOError{Path: path, Description: err.Error(), Err: err}
	}

	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &FileNotFoundError{Path: abs}
		}
		return "", &IOError{Path: abs, Description: err.Error(), Err: err}
	}

	return abs, nil
}
