package command

import "github.com/kbukum/goplatform/stream"

// InputKind selects how a stage's stdin is provided.
type InputKind int

const (
	// InputPipe creates a pipe the caller writes to through the process sink.
	InputPipe InputKind = iota
	// InputInherit shares the parent's stdin.
	InputInherit
	// InputStream creates a pipe and drains the given stream into it.
	InputStream
)

// Input is a stdin disposition.
type Input struct {
	Kind   InputKind
	Stream *stream.Stream[[]byte]
}

// StdinPipe is the default disposition.
func StdinPipe() Input { return Input{Kind: InputPipe} }

// StdinInherit shares the parent's stdin.
func StdinInherit() Input { return Input{Kind: InputInherit} }

// StdinFrom feeds s into the process.
func StdinFrom(s *stream.Stream[[]byte]) Input {
	return Input{Kind: InputStream, Stream: s}
}

// OutputKind selects how a stage's stdout or stderr is handled.
type OutputKind int

const (
	// OutputKindPipe exposes the output as a stream.
	OutputKindPipe OutputKind = iota
	// OutputKindInherit shares the parent's descriptor.
	OutputKindInherit
	// OutputKindTransform pipes the output through a transformation.
	OutputKindTransform
)

// Output is a stdout or stderr disposition.
type Output struct {
	Kind      OutputKind
	Transform func(*stream.Stream[[]byte]) *stream.Stream[[]byte]
}

// OutputPipe is the default disposition.
func OutputPipe() Output { return Output{Kind: OutputKindPipe} }

// OutputInherit shares the parent's descriptor.
func OutputInherit() Output { return Output{Kind: OutputKindInherit} }

// OutputTransform pipes the output and applies fn to the resulting stream.
// It is only honored for stdout; on stderr it behaves like OutputPipe.
func OutputTransform(fn func(*stream.Stream[[]byte]) *stream.Stream[[]byte]) Output {
	return Output{Kind: OutputKindTransform, Transform: fn}
}

// Piped reports whether the output creates a pipe.
func (o Output) Piped() bool { return o.Kind != OutputKindInherit }
