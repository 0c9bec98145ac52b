// Package native defines the boundary between the property dispatcher and
// the platform engine that actually reads and writes a file's property store.
//
// Engines speak in property ordinals and HRESULT-style status codes. Absent
// unsigned values are reported with the NullUint sentinel; the sentinel never
// leaves this boundary.
package native

import "fmt"

// NullUint is returned by Engine.ReadUint when the property has no value.
// Every unsigned property is stored as VT_UI4, so -1 never collides with a
// real value.
const NullUint int64 = -1

// Engine is the narrow foreign-call surface of a native property engine.
//
// Every method takes an absolute path. Failures are reported as *Error where
// the engine can classify them.
type Engine interface {
	ReadString(path string, ordinal int) (string, bool, error)
	ReadUint(path string, ordinal int) (int64, error)
	WriteString(path string, ordinal int, value string) error
	WriteUint(path string, ordinal int, value uint32) error
	Clear(path string, ordinal int) error
	ClearAll(path string) error
	HasProperty(path string, ordinal int) (bool, error)
	IsValidMediaFile(path string) (bool, error)
	ReadAll(path string) (map[int]any, error)
}

// Code is an HRESULT-style status reported by an engine.
type Code uint32

const (
	// CodeFail is E_FAIL. The shell property system reports it when it has
	// no property handler for the file, which in practice means the file is
	// not a media container.
	CodeFail             Code = 0x80004005
	CodeFileNotFound     Code = 0x80070002
	CodePathNotFound     Code = 0x80070003
	CodeAccessDenied     Code = 0x80070005
	CodeWriteFault       Code = 0x8007001D
	CodeReadFault        Code = 0x8007001E
	CodeSharingViolation Code = 0x80070020
	CodeInvalidArg       Code = 0x80070057
	CodeReadOnlyProperty Code = 0x80030005
)

var codeNames = map[Code]string{
	CodeFail:             "E_FAIL",
	CodeFileNotFound:     "ERROR_FILE_NOT_FOUND",
	CodePathNotFound:     "ERROR_PATH_NOT_FOUND",
	CodeAccessDenied:     "E_ACCESSDENIED",
	CodeWriteFault:       "ERROR_WRITE_FAULT",
	CodeReadFault:        "ERROR_READ_FAULT",
	CodeSharingViolation: "ERROR_SHARING_VIOLATION",
	CodeInvalidArg:       "E_INVALIDARG",
	CodeReadOnlyProperty: "STG_E_ACCESSDENIED",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint32(c))
}

// Error is a failed engine call.
type Error struct {
	Code        Code
	Description string
	Err         error
}

// Errorf builds an *Error with a formatted description.
func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Description: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that keeps err as its cause.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Description: err.Error(), Err: err}
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code.String()
	}
	return e.Description
}

func (e *Error) Unwrap() error {
	return e.Err
}
