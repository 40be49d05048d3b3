package exprcalc

import "errors"

// EvaluationError is the error returned for any expression that cannot be
// parsed or evaluated. Msg is the complete message; Err, if not nil, is the
// underlying cause, such as an InputError from the parser or the error
// returned by a function.
type EvaluationError struct {
	Msg string
	Err error
}

func (err *EvaluationError) Error() string {
	return err.Msg
}

func (err *EvaluationError) Unwrap() error {
	return err.Err
}

// evalError converts any error into an *EvaluationError with the same
// message.
func evalError(err error) *EvaluationError {
	if ee, ok := err.(*EvaluationError); ok {
		return ee
	}
	return &EvaluationError{Msg: err.Error(), Err: err}
}

// ArgumentError is an error returned by a function that was called with
// unsuitable arguments. When a function returns an ArgumentError with no
// Func, the evaluator fills in the name the function was called by.
type ArgumentError struct {
	// Func is the name of the function.
	Func string
	// Msg describes the problem, e.g. "takes exactly 1 argument (2 given)".
	Msg string
}

func (err *ArgumentError) Error() string {
	return err.Func + "() " + err.Msg
}

var (
	// ErrDomain is returned by math functions called outside their domain.
	ErrDomain = errors.New("math domain error")
	// ErrRange is returned by math functions whose result overflows.
	ErrRange = errors.New("math range error")
)
