package vfs

import (
	"errors"
	"fmt"
)

// Code is a POSIX-style error code. Codes are errors themselves, so
// errors.Is(err, vfs.ENOENT) works on any *Error.
type Code string

const (
	ENOENT    Code = "ENOENT"
	EEXIST    Code = "EEXIST"
	ENOTDIR   Code = "ENOTDIR"
	EISDIR    Code = "EISDIR"
	ENOTEMPTY Code = "ENOTEMPTY"
	ENOSPC    Code = "ENOSPC"
	EINVAL    Code = "EINVAL"
)

var codeMessages = map[Code]string{
	ENOENT:    "no such file or directory",
	EEXIST:    "file already exists",
	ENOTDIR:   "not a directory",
	EISDIR:    "illegal operation on a directory",
	ENOTEMPTY: "directory not empty",
	ENOSPC:    "no space left on device",
	EINVAL:    "invalid argument",
}

func (c Code) Error() string {
	return fmt.Sprintf("%s: %s", string(c), codeMessages[c])
}

// Error is returned by every failing FileSystem operation.
type Error struct {
	Code   Code
	Op     string
	Path   string
	Detail string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s, %s '%s'", e.Code.Error(), e.Op, e.Path)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Code
}

func newError(code Code, op, path string) *Error {
	return &Error{Code: code, Op: op, Path: path}
}

func newErrorf(code Code, op, path, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from err, or "" when err is not a vfs error.
func CodeOf(err error) Code {
	var code Code
	if errors.As(err, &code) {
		return code
	}
	return ""
}
