// Package kqerr implements a typed error taxonomy exposed through the
// external get_error interface.
package kqerr

import (
	"fmt"
	"runtime"

	jsoniter "github.com/json-iterator/go"
)

// Type is one of the four error categories the external API reports.
type Type string

const (
	ArgumentError Type = "ArgumentError"
	FormatError   Type = "FormatError"
	MemoryError   Type = "MemoryError"
	ResourceError Type = "ResourceError"
)

// Error is a typed error carrying the call-site context the external
// get_error interface reports.
type Error struct {
	ErrType  Type   `json:"type"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
	Message  string `json:"message"`

	wrapped error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s:%d in %s)", e.ErrType, e.Message, e.File, e.Line, e.Function)
}

// Unwrap lets errors.Is/errors.As see through to a wrapped cause.
func (e *Error) Unwrap() error { return e.wrapped }

// New builds an Error of the given type.
func New(t Type, file string, line int, function, message string) *Error {
	return &Error{ErrType: t, File: file, Line: line, Function: function, Message: message}
}

// Wrap builds an Error of the given type around an existing error.
func Wrap(t Type, file string, line int, function string, err error) *Error {
	return &Error{ErrType: t, File: file, Line: line, Function: function, Message: err.Error(), wrapped: err}
}

// NewHere builds an Error of the given type, filling file/line/function
// from the caller's own frame.
func NewHere(t Type, message string) *Error {
	pc, file, line, _ := runtime.Caller(1)
	name := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
	}
	return New(t, file, line, name, message)
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON encodes the error as the object shape get_error returns.
func (e *Error) JSON() string {
	b, err := jsonAPI.Marshal(e)
	if err != nil {
		return `{"type":"MemoryError","message":"failed to encode error"}`
	}
	return string(b)
}

// Box holds a handle's most recent error until another operation
// succeeds or clear_error is called.
type Box struct {
	last *Error
}

// Set records err as the handle's current error.
func (b *Box) Set(err *Error) { b.last = err }

// Clear implements clear_error.
func (b *Box) Clear() { b.last = nil }

// Get implements get_error; returns "" if there is no pending error.
func (b *Box) Get() string {
	if b.last == nil {
		return ""
	}
	return b.last.JSON()
}

// Last returns the raw last error, or nil.
func (b *Box) Last() *Error { return b.last }
