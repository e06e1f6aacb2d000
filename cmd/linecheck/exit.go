package main

import "errors"

// Process exit codes
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitFailure    = 2
)

// exitError carries an explicit exit code through cobra's error return
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// violations marks an already reported rule failure. The message is not
// printed again.
func violations(err error) error {
	return &exitError{code: ExitViolations, err: err, silent: true}
}

// exitCode maps a command error to the process exit status. Anything that is
// not an explicit rule failure is treated as an input, parse or config failure.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

func isSilent(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.silent
}
