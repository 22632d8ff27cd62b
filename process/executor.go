package process

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/term"

	"github.com/kbukum/goplatform/command"
	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/filesystem"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/observability"
	"github.com/kbukum/goplatform/resilience"
	"github.com/kbukum/goplatform/scope"
	"github.com/kbukum/goplatform/stream"
)

// Executor starts commands. The returned Process lives until sc is closed.
type Executor interface {
	Start(ctx context.Context, sc *scope.Scope, cmd command.Command) (*Process, error)
}

// Accessor checks that a path is accessible. *filesystem.FileSystem
// satisfies it.
type Accessor interface {
	Access(ctx context.Context, path string, opts filesystem.AccessOptions) error
}

// Option configures a CommandExecutor.
type Option func(*CommandExecutor)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *CommandExecutor) { e.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *CommandExecutor) { e.log = l }
}

// WithMetrics records spawns and exits on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *CommandExecutor) { e.metrics = m }
}

// CommandExecutor spawns OS processes and wires pipelines between them.
type CommandExecutor struct {
	fs      Accessor
	cfg     Config
	killSig syscall.Signal
	log     *logger.Logger
	metrics *observability.Metrics
}

var _ Executor = (*CommandExecutor)(nil)

// NewExecutor creates an executor. fs is used to check working directories
// before spawning; a nil fs uses the OS file system.
func NewExecutor(fs Accessor, opts ...Option) (*CommandExecutor, error) {
	e := &CommandExecutor{fs: fs}
	for _, opt := range opts {
		opt(e)
	}
	if e.fs == nil {
		e.fs = filesystem.NewOS()
	}
	if e.log == nil {
		e.log = logger.Get("process")
	}
	e.cfg.ApplyDefaults()
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	e.killSig, _ = ParseSignal(e.cfg.KillSignal)
	return e, nil
}

// Start runs cmd. A pipeline returns the handle of its last stage; earlier
// stages are started when their output is first pulled and released once
// it has been consumed.
func (e *CommandExecutor) Start(ctx context.Context, sc *scope.Scope, cmd command.Command) (*Process, error) {
	if err := command.Validate(cmd); err != nil {
		return nil, err
	}
	stages := command.Flatten(cmd)
	if len(stages) == 1 {
		return e.startStandard(ctx, sc, stages[0], false)
	}

	running := e.stageOutput(stages[0])
	for _, st := range stages[1 : len(stages)-1] {
		st.Stdin = command.StdinFrom(running)
		running = e.stageOutput(st)
	}
	last := stages[len(stages)-1]
	last.Stdin = command.StdinFrom(running)
	return e.startStandard(ctx, sc, last, false)
}

// stageOutput describes an interior stage as its stdout stream. Each pull
// of the stream spawns the stage in a scope owned by that pull.
func (e *CommandExecutor) stageOutput(st command.Standard) *stream.Stream[[]byte] {
	if st.Stdout.Kind == command.OutputKindInherit {
		st.Stdout = command.OutputPipe()
	}
	return stream.Scoped(func(ctx context.Context, sc *scope.Scope) (*stream.Stream[[]byte], error) {
		p, err := e.startStandard(ctx, sc, st, true)
		if err != nil {
			return nil, err
		}
		return p.Stdout(), nil
	})
}

func (e *CommandExecutor) startStandard(ctx context.Context, sc *scope.Scope, st command.Standard, interior bool) (*Process, error) {
	line := st.String()
	ctx, op := observability.StartOperation(ctx, observability.SpanProcessSpawn,
		attribute.String(observability.AttrCommand, line))

	p, err := e.spawn(ctx, st, line)
	if err != nil {
		e.metrics.RecordSpawn(ctx, st.Name, string(errors.ReasonOf(err)))
		e.log.Debug("spawn failed", logger.Fields(logger.FieldCommand, line, logger.FieldError, err.Error()))
		op.End(err)
		return nil, err
	}
	op.SetAttributes(attribute.Int(observability.AttrPID, p.pid))
	op.End(nil)
	e.metrics.RecordSpawn(ctx, st.Name, "")
	e.log.Debug("process started", logger.Fields(logger.FieldPID, p.pid, logger.FieldCommand, line))
	if err := e.wire(ctx, sc, p, interior); err != nil {
		return nil, err
	}
	return p, nil
}

// pipes holds both ends of the stdio pipes of one spawn attempt.
type pipes struct {
	childIn, childOut, childErr *os.File
	stdin                       *os.File // parent write end
	stdout, stderr              *os.File // parent read ends
}

func newPipes(st command.Standard) (_ *pipes, err error) {
	p := &pipes{childIn: os.Stdin, childOut: os.Stdout, childErr: os.Stderr}
	defer func() {
		if err != nil {
			p.closeParent()
			p.closeChild()
		}
	}()
	if st.Stdin.Kind != command.InputInherit {
		if p.childIn, p.stdin, err = os.Pipe(); err != nil {
			return p, err
		}
	}
	if st.Stdout.Piped() {
		if p.stdout, p.childOut, err = os.Pipe(); err != nil {
			return p, err
		}
	}
	if st.Stderr.Piped() {
		if p.stderr, p.childErr, err = os.Pipe(); err != nil {
			return p, err
		}
	}
	return p, nil
}

// inheritsTerminal reports whether st reads the parent's terminal. Such a
// child must stay in the foreground process group: leading a group of its
// own would stop it with SIGTTIN on its first read.
func inheritsTerminal(st command.Standard) bool {
	return st.Stdin.Kind == command.InputInherit && term.IsTerminal(int(os.Stdin.Fd()))
}

// closeChild closes the child ends once the child holds its own copies.
func (p *pipes) closeChild() {
	for _, f := range []*os.File{p.childIn, p.childOut, p.childErr} {
		if f != nil && f != os.Stdin && f != os.Stdout && f != os.Stderr {
			_ = f.Close()
		}
	}
}

func (p *pipes) closeParent() {
	for _, f := range []*os.File{p.stdin, p.stdout, p.stderr} {
		if f != nil {
			_ = f.Close()
		}
	}
}

func (e *CommandExecutor) spawn(ctx context.Context, st command.Standard, line string) (*Process, error) {
	if st.Dir != "" {
		if err := e.fs.Access(ctx, st.Dir, filesystem.AccessOptions{}); err != nil {
			return nil, err
		}
	}

	ownGroup := !e.cfg.SharedProcessGroup && !inheritsTerminal(st)
	var stdio *pipes
	cmd, err := resilience.Retry(ctx, e.spawnRetry(line), func() (*exec.Cmd, error) {
		var err error
		if stdio, err = newPipes(st); err != nil {
			return nil, err
		}
		c := exec.Command(st.Name, st.Args...)
		c.Env = append(os.Environ(), st.EnvList()...)
		c.Dir = st.Dir
		c.Stdin, c.Stdout, c.Stderr = stdio.childIn, stdio.childOut, stdio.childErr
		if ownGroup {
			c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		}
		err = c.Start()
		stdio.closeChild()
		if err != nil {
			stdio.closeParent()
			return nil, err
		}
		return c, nil
	})
	if err != nil {
		return nil, errors.Classify(err, moduleName, "spawn", line)
	}

	p := &Process{
		cmd:     cmd,
		stage:   st,
		line:    line,
		pid:     cmd.Process.Pid,
		done:    make(chan struct{}),
		cfg:     e.cfg,
		killSig: e.killSig,
		log:     e.log,
		metrics: e.metrics,
		started: time.Now(),
	}
	p.ownGroup = ownGroup
	p.stdin = stream.Drain[[]byte]()
	p.stdout = stream.Empty[[]byte]()
	p.stderr = stream.Empty[[]byte]()
	if stdio.stdin != nil {
		p.stdin = stream.ToWriter(stdio.stdin, p.classifier("stdin"))
	}
	if stdio.stdout != nil {
		p.stdout = stream.FromReader(stdio.stdout, p.classifier("stdout"))
		if st.Stdout.Kind == command.OutputKindTransform {
			p.stdout = st.Stdout.Transform(p.stdout)
		}
	}
	if stdio.stderr != nil {
		p.stderr = stream.FromReader(stdio.stderr, p.classifier("stderr"))
	}
	p.files = stdio
	go p.wait()
	return p, nil
}

func (e *CommandExecutor) spawnRetry(line string) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    e.cfg.SpawnAttempts,
		InitialBackoff: e.cfg.SpawnBackoff,
		MaxBackoff:     time.Second,
		BackoffFactor:  2,
		RetryIf:        resilience.RetryOnReasons(errors.ReasonBusy),
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			e.log.Debug("retrying spawn", logger.Fields(
				logger.FieldCommand, line, "attempt", attempt, "backoff", backoff.String(), logger.FieldError, err.Error()))
		},
	}
}

// wire registers the release finalizer and starts the stdin drain.
func (e *CommandExecutor) wire(ctx context.Context, sc *scope.Scope, p *Process, interior bool) error {
	drainCtx, cancelDrain := context.WithCancel(context.WithoutCancel(ctx))

	err := sc.AddFinalizer(func(ctx context.Context) error {
		err := p.release(ctx)
		cancelDrain()
		p.files.closeParent()
		return err
	})
	if err != nil {
		return err
	}

	if interior && p.files.stderr != nil {
		// nobody reads an interior stage's stderr; keep it from filling up
		go func() { _, _ = io.Copy(io.Discard, p.files.stderr) }()
	}

	if in := p.stage.Stdin; in.Kind == command.InputStream && in.Stream != nil {
		go func() {
			err := stream.Run(drainCtx, in.Stream, p.stdin)
			if err != nil && !stderrors.Is(err, context.Canceled) {
				e.log.Warn("stdin drain failed", logger.Fields(
					logger.FieldPID, p.pid, logger.FieldCommand, p.line, logger.FieldError, err.Error()))
			}
		}()
	}
	return nil
}

func (p *Process) classifier(method string) func(error) error {
	return func(err error) error {
		return errors.Classify(err, moduleName, method, p.line)
	}
}
