package filter

import "errors"

// Error kinds. Every error returned by the generator wraps exactly one of them.
var (
	ErrFieldNotAllowed         = errors.New("field not allowed")
	ErrInvalidOperatorForInput = errors.New("invalid operator for input")
	ErrInvalidValueShape       = errors.New("invalid value shape")
	ErrUnknownOperator         = errors.New("unknown operator")
)

// Error is a client input error. Msg is safe to return to the caller.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// IsInputError reports whether err was caused by the client request.
func IsInputError(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
