// Package memory is an in-process property engine. It backs the tests and
// the CLI dry-run mode.
package memory

import (
	"sync"

	"mediaprops/internal/native"
)

const ordinalCount = 17

var _ native.Engine = (*Engine)(nil)

type file struct {
	media  bool
	inUse  bool
	values map[int]any
}

// Engine keeps property values per path. It is safe for concurrent use.
//
// Paths must be registered with Add or AddNonMedia before use; any other
// path reports ERROR_FILE_NOT_FOUND, which mirrors what a real engine says
// about a file deleted after the caller's existence check.
type Engine struct {
	mu           sync.Mutex
	files        map[string]*file
	calls        int
	autoRegister bool
}

// Option configures an Engine.
type Option func(*Engine)

// AutoRegister treats every unknown path as an empty media file on first
// use. The CLI dry-run mode relies on it.
func AutoRegister() Option {
	return func(e *Engine) {
		e.autoRegister = true
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{files: make(map[string]*file)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add registers path as a media file with no properties set.
func (e *Engine) Add(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[path] = &file{media: true, values: make(map[int]any)}
}

// AddNonMedia registers path as a file without a property schema.
func (e *Engine) AddNonMedia(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[path] = &file{values: make(map[int]any)}
}

// SetInUse makes every call on path fail with a sharing violation.
func (e *Engine) SetInUse(path string, inUse bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f, ok := e.files[path]; ok {
		f.inUse = inUse
	}
}

// Seed stores a raw value without going through the write accessors, e.g.
// for read-only technical properties. value must be a string or a uint32.
func (e *Engine) Seed(path string, ordinal int, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f, ok := e.files[path]; ok {
		f.values[ordinal] = value
	}
}

// Calls returns how many engine calls have been made.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// open must be called with e.mu held.
func (e *Engine) open(path string, ordinal int) (*file, error) {
	e.calls++

	f, ok := e.files[path]
	if !ok && e.autoRegister {
		f = &file{media: true, values: make(map[int]any)}
		e.files[path] = f
		ok = true
	}
	if !ok {
		return nil, native.Errorf(native.CodeFileNotFound, "The system cannot find the file specified.")
	}
	if f.inUse {
		return nil, native.Errorf(native.CodeSharingViolation, "The process cannot access the file because it is being used by another process.")
	}
	if !f.media {
		return nil, native.Errorf(native.CodeFail, "Unspecified error")
	}
	if ordinal < -1 || ordinal >= ordinalCount {
		return nil, native.Errorf(native.CodeInvalidArg, "The parameter is incorrect.")
	}
	return f, nil
}

func (e *Engine) ReadString(path string, ordinal int) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open(path, ordinal)
	if err != nil {
		return "", false, err
	}
	s, ok := f.values[ordinal].(string)
	return s, ok, nil
}

func (e *Engine) ReadUint(path string, ordinal int) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open(path, ordinal)
	if err != nil {
		return 0, err
	}
	n, ok := f.values[ordinal].(uint32)
	if !ok {
		return native.NullUint, nil
	}
	return int64(n), nil
}

func (e *Engine) WriteString(path string, ordinal int, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open(path, ordinal)
	if err != nil {
		return err
	}
	f.values[ordinal] = value
	return nil
}

func (e *Engine) WriteUint(path string, ordinal int, value uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open(path, ordinal)
	if err != nil {
		return err
	}
	f.values[ordinal] = value
	return nil
}

func (e *Engine) Clear(path string, ordinal int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open(path, ordinal)
	if err != nil {
		return err
	}
	delete(f.values, ordinal)
	return nil
}

func (e *Engine) ClearAll(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open(path, -1)
	if err != nil {
		return err
	}
	f.values = make(map[int]any)
	return nil
}

func (e *Engine) HasProperty(path string, ordinal int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open(path, ordinal)
	if err != nil {
		return false, err
	}
	_, ok := f.values[ordinal]
	return ok, nil
}

// IsValidMediaFile answers false for non-media files instead of failing.
func (e *Engine) IsValidMediaFile(path string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.open(path, -1)
	if err != nil {
		if nerr, ok := err.(*native.Error); ok && nerr.Code == native.CodeFail {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (e *Engine) ReadAll(path string) (map[int]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.open(path, -1)
	if err != nil {
		return nil, err
	}
	out := make(map[int]any, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}
