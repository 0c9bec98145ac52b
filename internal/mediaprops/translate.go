package mediaprops

import (
	"errors"
	"io/fs"

	"mediaprops/internal/native"
)

// translate maps an engine failure for path onto the closed set of caller
// facing conditions.
func translate(path string, err error) error {
	if err == nil {
		return nil
	}

	var nerr *native.Error
	if errors.As(err, &nerr) {
		switch nerr.Code {
		case native.CodeFileNotFound, native.CodePathNotFound:
			return &FileNotFoundError{Path: path}
		case native.CodeFail:
			return &NotMediaFileError{Path: path}
		default:
			return &IOError{Path: path, Description: nerr.Error(), Err: err}
		}
	}

	if errors.Is(err, fs.ErrNotExist) {
		return &FileNotFoundError{Path: path}
	}
	return &IOError{Path: path, Description: err.Error(), Err: err}
}
