package object

import (
	"fmt"

	"github.com/quill-lang/quill/op"
)

// Error wraps a Go error and implements the Object interface. Runtime
// failures and thrown values both surface in catch blocks as Errors.
type Error struct {
	*base
	err error
}

func (e *Error) Type() Type {
	return ERROR
}

func (e *Error) Inspect() string {
	return fmt.Sprintf("error(%q)", e.err.Error())
}

func (e *Error) String() string {
	return e.Inspect()
}

func (e *Error) Interface() interface{} {
	return e.err
}

// Value returns the wrapped Go error.
func (e *Error) Value() error {
	return e.err
}

// Message returns the error message as a String object.
func (e *Error) Message() *String {
	return NewString(e.err.Error())
}

func (e *Error) GetAttr(name string) (Object, bool) {
	if name == "message" {
		return e.Message(), true
	}
	return nil, false
}

func (e *Error) Equals(other Object) bool {
	otherErr, ok := other.(*Error)
	if !ok {
		return false
	}
	return e.err.Error() == otherErr.err.Error()
}

func (e *Error) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, TypeErrorf("type error: unsupported operation for error: %v", opType)
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return nil, TypeErrorf("type error: unable to marshal error")
}

// NewError creates an Error object wrapping the given Go error.
func NewError(err error) *Error {
	return &Error{err: err}
}

// Errorf creates an Error object with a formatted message.
func Errorf(format string, args ...interface{}) *Error {
	return NewError(fmt.Errorf(format, args...))
}
