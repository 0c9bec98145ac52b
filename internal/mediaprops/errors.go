package mediaprops

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinels for errors.Is. Each typed error below matches exactly one.
var (
	ErrFileNotFound    = errors.New("file not found")
	ErrNotMediaFile    = errors.New("not a media file")
	ErrIO              = errors.New("media file IO failure")
	ErrInvalidArgument = errors.New("invalid property argument")
	ErrPropertyAbsent  = errors.New("property absent")
)

// FileNotFoundError is returned when no filesystem entry exists at Path.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file doesn't exist: '%s'", e.Path)
}

func (e *FileNotFoundError) Is(target error) bool { return target == ErrFileNotFound }

// Unwrap lets callers test with errors.Is(err, fs.ErrNotExist).
func (e *FileNotFoundError) Unwrap() error { return fs.ErrNotExist }

// NotMediaFileError is returned when the engine has no property schema for the file.
type NotMediaFileError struct {
	Path string
}

func (e *NotMediaFileError) Error() string {
	return fmt.Sprintf("the given file is not a media file: '%s'", e.Path)
}

func (e *NotMediaFileError) Is(target error) bool { return target == ErrNotMediaFile }

// IOError is a file-system level failure reported by the engine, such as a
// sharing violation when the file is open elsewhere.
type IOError struct {
	Path        string
	Description string
	Err         error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("an IO error happened with the file: '%s', description: %s", e.Path, e.Description)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }

func (e *IOError) Unwrap() error { return e.Err }

// InvalidArgumentError is a caller error detected before any engine call:
// a negative or oversized value for an unsigned property, or a value whose
// Go type does not match the property's kind.
type InvalidArgumentError struct {
	Property *Descriptor
	Value    any
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("can't set property '%s' to %s: '%v'", e.Property.Name(), e.Reason, e.Value)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// PropertyAbsentError is returned by ReadRequired when the property has no value.
type PropertyAbsentError struct {
	Path     string
	Property *Descriptor
}

func (e *PropertyAbsentError) Error() string {
	return fmt.Sprintf("property '%s' doesn't exist on file: '%s'", e.Property.Name(), e.Path)
}

func (e *PropertyAbsentError) Is(target error) bool { return target == ErrPropertyAbsent }
