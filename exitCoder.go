package corekit

import "errors"

// DefaultErrorExitCode is used when no exit code could otherwise be
// determined for a non-nil error.
const DefaultErrorExitCode int = 1

// ExitCoder is an optional interface that an error can implement to supply
// an associated exit code with that error.
type ExitCoder interface {
	// ExitCode returns the exit code associated with this error.
	ExitCode() int
}

type exitCodeErr struct {
	error
	exitCode int
}

func (ece exitCodeErr) ExitCode() int {
	return ece.exitCode
}

func (ece exitCodeErr) Unwrap() error {
	return ece.error
}

// UseExitCode associates an existing error with an exit code.  The returned error
// implements ExitCoder and unwraps to err.
//
// A nil err panics immediately.
func UseExitCode(err error, exitCode int) error {
	if err == nil {
		panic("cannot associate a nil error with an exit code")
	}

	return exitCodeErr{
		error:    err,
		exitCode: exitCode,
	}
}

// ExitCodeFor determines the process exit code for an error: an ExitCoder's
// code if err has one in its chain, DefaultErrorExitCode for any other error,
// and zero for nil.
func ExitCodeFor(err error) int {
	var ec ExitCoder
	switch {
	case errors.As(err, &ec):
		return ec.ExitCode()

	case err != nil:
		return DefaultErrorExitCode

	default:
		return 0
	}
}
