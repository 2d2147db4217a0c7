package cmd

import (
	"errors"
	"fmt"
)

const (
	exitFailure       = 1
	exitInvalidTarget = 2
	exitInterrupted   = 130
)

// InvalidTargetError indicates the scan target could not be parsed.
type InvalidTargetError struct {
	Target string
	Err    error
}

func (e *InvalidTargetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid target %q: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("invalid target %q", e.Target)
}

func (e *InvalidTargetError) Unwrap() error { return e.Err }

// InterruptedError signals the scan was stopped by a signal before it
// completed.
type InterruptedError struct {
	Target string
}

func (e *InterruptedError) Error() string {
	if e.Target == "" {
		return "scan interrupted"
	}
	return fmt.Sprintf("scan of %s interrupted", e.Target)
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	var invalid *InvalidTargetError
	var interrupted *InterruptedError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &invalid):
		return exitInvalidTarget
	case errors.As(err, &interrupted):
		return exitInterrupted
	default:
		return exitFailure
	}
}
