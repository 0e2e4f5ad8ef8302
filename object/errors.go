package object

import (
	"github.com/quill-lang/quill/errz"
)

// TypeErrorf returns a type error with a formatted message.
func TypeErrorf(format string, args ...interface{}) *errz.StructuredError {
	return errz.TypeErrorf(format, args...)
}

// ValueErrorf returns a value error with a formatted message.
func ValueErrorf(format string, args ...interface{}) *errz.StructuredError {
	return errz.ValueErrorf(format, args...)
}

// EvalErrorf returns a runtime error with a formatted message.
func EvalErrorf(format string, args ...interface{}) *errz.StructuredError {
	return errz.RuntimeErrorf(format, args...)
}

// NewArgsError returns an error describing a call with a bad argument count.
func NewArgsError(fn string, takes, given int) *errz.StructuredError {
	return errz.TypeErrorf("type error: %s() takes exactly %d arguments (%d given)",
		fn, takes, given)
}

// NewArgsRangeError returns an error describing a call whose argument count
// falls outside the accepted range.
func NewArgsRangeError(fn string, takesMin, takesMax, given int) *errz.StructuredError {
	if takesMax == takesMin {
		return NewArgsError(fn, takesMin, given)
	}
	return errz.TypeErrorf("type error: %s() takes between %d and %d arguments (%d given)",
		fn, takesMin, takesMax, given)
}
