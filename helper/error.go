package helper

import "fmt"

// Error wraps an underlying error with the operation it occurred in.
type Error struct {
	Op  string
	Err error
}

// NewError creates an Error for the given operation.
func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("error in %v: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
