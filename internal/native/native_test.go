package native

import (
	"errors"
	"io/fs"
	"testing"
)

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeFail, "E_FAIL"},
		{CodeSharingViolation, "ERROR_SHARING_VIOLATION"},
		{CodeReadOnlyProperty, "STG_E_ACCESSDENIED"},
		{Code(0x80001234), "0x80001234"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("Code(%#x).String() = %q, want %q", uint32(tt.code), got, tt.want)
		}
	}
}

func TestCodeFailMatchesShellValue(t *testing.T) {
	// The shell reports "no handler" as the signed HRESULT -2147467259.
	code := CodeFail
	if int32(code) != -2147467259 {
		t.Errorf("CodeFail = %d, want -2147467259", int32(code))
	}
}

func TestErrorMessage(t *testing.T) {
	err := Errorf(CodeSharingViolation, "file %s is busy", "a.mp3")
	if err.Error() != "file a.mp3 is busy" {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := &Error{Code: CodeWriteFault}
	if bare.Error() != "ERROR_WRITE_FAULT" {
		t.Errorf("Error() without description = %q", bare.Error())
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(CodeFileNotFound, fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("wrapped error should unwrap to fs.ErrNotExist")
	}

	var nerr *Error
	if !errors.As(error(err), &nerr) || nerr.Code != CodeFileNotFound {
		t.Errorf("errors.As did not recover code, got %v", nerr)
	}
}
