package command

import (
	"maps"
	"sort"
	"strings"

	"github.com/kbukum/goplatform/stream"
)

// Command is either a Standard program invocation or a Piped pair.
// Values are immutable: every builder returns a new Command.
type Command interface {
	// String renders the command line for diagnostics.
	String() string
	isCommand()
}

// Standard runs a single program.
type Standard struct {
	Name   string
	Args   []string
	Env    map[string]string
	Dir    string
	Stdin  Input
	Stdout Output
	Stderr Output
}

// Piped feeds Left's stdout into Right's stdin.
type Piped struct {
	Left  Command
	Right Command
}

func (Standard) isCommand() {}
func (Piped) isCommand()    {}

func (c Standard) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

func (c Piped) String() string {
	stages := Flatten(c)
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}

// EnvList renders the command's environment overlay as sorted KEY=VALUE pairs.
func (c Standard) EnvList() []string {
	out := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func (c Standard) clone() Standard {
	c.Args = append([]string(nil), c.Args...)
	c.Env = maps.Clone(c.Env)
	return c
}

// Make creates a Standard command. All three streams default to pipes.
func Make(name string, args ...string) Standard {
	return Standard{
		Name:   name,
		Args:   append([]string(nil), args...),
		Stdin:  StdinPipe(),
		Stdout: OutputPipe(),
		Stderr: OutputPipe(),
	}
}

// Pipe chains commands left to right: Pipe(a, b, c) is a | b | c.
func Pipe(first Command, rest ...Command) Command {
	out := first
	for _, next := range rest {
		out = Piped{Left: out, Right: next}
	}
	return out
}

// Flatten returns the Standard stages of cmd from left to right. A command
// of N stages always flattens to N stages regardless of how it was nested.
func Flatten(cmd Command) []Standard {
	switch c := cmd.(type) {
	case Standard:
		return []Standard{c}
	case Piped:
		return append(Flatten(c.Left), Flatten(c.Right)...)
	default:
		return nil
	}
}

// WithEnv overlays env onto every stage. Entries in env win over entries
// already set on the command.
func WithEnv(cmd Command, env map[string]string) Command {
	switch c := cmd.(type) {
	case Standard:
		c = c.clone()
		if c.Env == nil {
			c.Env = make(map[string]string, len(env))
		}
		maps.Copy(c.Env, env)
		return c
	case Piped:
		return Piped{Left: WithEnv(c.Left, env), Right: WithEnv(c.Right, env)}
	}
	return cmd
}

// WithDir sets the working directory of every stage.
func WithDir(cmd Command, dir string) Command {
	switch c := cmd.(type) {
	case Standard:
		c = c.clone()
		c.Dir = dir
		return c
	case Piped:
		return Piped{Left: WithDir(c.Left, dir), Right: WithDir(c.Right, dir)}
	}
	return cmd
}

// WithStdin sets the stdin of the leftmost stage.
func WithStdin(cmd Command, in Input) Command {
	switch c := cmd.(type) {
	case Standard:
		c = c.clone()
		c.Stdin = in
		return c
	case Piped:
		return Piped{Left: WithStdin(c.Left, in), Right: c.Right}
	}
	return cmd
}

// WithStdout sets the stdout of the rightmost stage.
func WithStdout(cmd Command, out Output) Command {
	switch c := cmd.(type) {
	case Standard:
		c = c.clone()
		c.Stdout = out
		return c
	case Piped:
		return Piped{Left: c.Left, Right: WithStdout(c.Right, out)}
	}
	return cmd
}

// WithStderr sets the stderr of the rightmost stage.
func WithStderr(cmd Command, out Output) Command {
	switch c := cmd.(type) {
	case Standard:
		c = c.clone()
		c.Stderr = out
		return c
	case Piped:
		return Piped{Left: c.Left, Right: WithStderr(c.Right, out)}
	}
	return cmd
}

// Feed writes text to the command's stdin.
func Feed(cmd Command, text string) Command {
	return WithStdin(cmd, StdinFrom(stream.FromString(text)))
}
