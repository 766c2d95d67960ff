package errortypes

import "fmt"

// ErrFilePos extends the error interface to add details on the file position where the error occurred.
type ErrFilePos interface {
	error
	File() string
	Line() int
	Col() int
}

// NewErrFilePosf creates an error conforming to the ErrFilePos interface.
func NewErrFilePosf(file string, line, col int, format string, args ...interface{}) error {
	return &errFilePos{
		error: fmt.Errorf(format, args...),
		file:  file,
		line:  line,
		col:   col,
	}
}

// IsErrFilePos identifies whethere or not the root cause of the provided error is of the ErrFilePos type.
// Wrapped errors are unwrapped via the Cause() or Unwrap() functions.
func IsErrFilePos(err error) bool {
	return ToErrFilePos(err) != nil
}

// ToErrFilePos converts the input error to an ErrFilePos if possible, or nil if not.
// If IsErrFilePos returns true, this will not return nil.
func ToErrFilePos(err error) ErrFilePos {
	for err != nil {
		if out, isErrFilePos := err.(ErrFilePos); isErrFilePos {
			return out
		}
		err = unwrapOnce(err)
	}
	return nil
}

// unwrapOnce peels one layer off err, preferring github.com/pkg/errors'
// Cause() over the standard library's Unwrap().
func unwrapOnce(err error) error {
	type causer interface {
		Cause() error
	}
	type wrapper interface {
		Unwrap() error
	}

	switch e := err.(type) {
	case causer:
		return e.Cause()
	case wrapper:
		return e.Unwrap()
	}
	return nil
}

var _ ErrFilePos = &errFilePos{}

type errFilePos struct {
	error
	file string
	line int
	col  int
}

func (e *errFilePos) File() string {
	return e.file
}

func (e *errFilePos) Line() int {
	return e.line
}

func (e *errFilePos) Col() int {
	return e.col
}
