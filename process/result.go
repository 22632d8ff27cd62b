package process

import (
	"fmt"
	"time"
)

// Result holds the output and status of a completed command.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the exit code of the last stage.
	ExitCode int
	// Duration is how long the command ran.
	Duration time.Duration
}

// ExitError reports a command that exited with a non-zero code.
type ExitError struct {
	Command string
	Code    int
	Stderr  []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

// ExitCode returns the exit code, so callers can propagate it as their own.
func (e *ExitError) ExitCode() int { return e.Code }
