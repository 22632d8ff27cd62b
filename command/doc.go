// Package command describes programs to run.
//
// A Command is a Standard invocation or a Piped pair. Pipelines flatten to
// their Standard stages from left to right, so (a|b)|c and a|(b|c) are the
// same three-stage pipeline. Overlays follow the pipeline shape: WithEnv and
// WithDir apply to every stage, WithStdin to the leftmost stage, and
// WithStdout and WithStderr to the rightmost one; interior stages always
// pipe.
//
// Commands are plain values; process.Executor runs them.
package command
