// Package platform bundles the file system, path, command executor,
// key-value store and worker services behind one lifecycle.
//
//	p, err := platform.New(&cfg)
//	err = p.Run(ctx, func(ctx context.Context, p *platform.Platform) error {
//	    res, err := process.Run(ctx, p.Executor, command.Make("uname", "-a"))
//	    ...
//	})
package platform

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/kbukum/goplatform/command"
	"github.com/kbukum/goplatform/component"
	"github.com/kbukum/goplatform/filesystem"
	"github.com/kbukum/goplatform/fspath"
	"github.com/kbukum/goplatform/kvstore"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/observability"
	"github.com/kbukum/goplatform/process"
	"github.com/kbukum/goplatform/scope"
	"github.com/kbukum/goplatform/worker"
)

// Hook is a lifecycle callback run during Start or Stop.
type Hook func(ctx context.Context) error

// Option configures New.
type Option func(*options)

type options struct {
	logger *logger.Logger
	fs     afero.Fs
}

// WithLogger sets the platform logger. If not set, the global logger is
// initialized from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFs backs the file system and file key-value store with fs.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// Platform owns the services and their lifecycle.
type Platform struct {
	Cfg        *Config
	FileSystem *filesystem.FileSystem
	Path       *fspath.Path
	KV         kvstore.Store
	Telemetry  *observability.Telemetry
	Components *component.Registry
	Logger     *logger.Logger

	// Executor is set by Start, once metrics are available.
	Executor *process.CommandExecutor

	onStart []Hook
	onStop  []Hook
}

// New creates the platform from cfg. It applies defaults and validates cfg;
// nothing is started until Start.
func New(cfg *Config, opts ...Option) (*Platform, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	p := &Platform{
		Cfg:        cfg,
		Path:       fspath.New(),
		Components: component.NewRegistry(),
		Telemetry:  observability.NewTelemetry(cfg.Telemetry),
	}
	if o.logger != nil {
		p.Logger = o.logger
	} else {
		logger.Init(cfg.Logging)
		p.Logger = logger.GetGlobalLogger()
	}
	if o.fs != nil {
		p.FileSystem = filesystem.New(o.fs)
	} else {
		p.FileSystem = filesystem.NewOS()
	}

	kv, err := kvstore.Open(cfg.KV, p.FileSystem.Fs(), p.Logger.WithComponent("kvstore"))
	if err != nil {
		return nil, err
	}
	p.KV = kv

	if err := p.Components.Register(p.Telemetry); err != nil {
		return nil, err
	}
	if c, ok := kv.(component.Component); ok {
		if err := p.Components.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// OnStart registers hooks run after every component has started.
func (p *Platform) OnStart(hooks ...Hook) { p.onStart = append(p.onStart, hooks...) }

// OnStop registers hooks run before components are stopped.
func (p *Platform) OnStop(hooks ...Hook) { p.onStop = append(p.onStop, hooks...) }

// Start starts every component, builds the executor and runs the start
// hooks. Unhealthy components are reported but do not fail Start.
func (p *Platform) Start(ctx context.Context) error {
	p.Logger.Debug("starting platform", logger.Fields("name", p.Cfg.Name, "version", p.Cfg.Version))
	if err := p.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}

	ex, err := process.NewExecutor(p.FileSystem,
		process.WithConfig(p.Cfg.Process),
		process.WithLogger(p.Logger.WithComponent("process")),
		process.WithMetrics(p.Telemetry.Metrics()),
	)
	if err != nil {
		return err
	}
	p.Executor = ex

	if err := runHooks(ctx, p.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	if err := p.ReadyCheck(ctx); err != nil {
		p.Logger.Warn("ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	return nil
}

// Stop runs the stop hooks and stops every component in reverse order,
// bounded by the configured shutdown timeout.
func (p *Platform) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.Cfg.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, p.onStop); err != nil {
		p.Logger.Error("onStop hook error", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}
	if err := p.Components.StopAll(ctx); err != nil {
		p.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}
	p.Logger.Debug("platform stopped")
	return shutdownErr
}

// Run starts the platform, runs task and stops the platform. The task's
// error wins over a shutdown error.
func (p *Platform) Run(ctx context.Context, task func(ctx context.Context, p *Platform) error) error {
	if err := p.Start(ctx); err != nil {
		_ = p.Stop(ctx)
		return err
	}
	taskErr := task(ctx, p)
	if stopErr := p.Stop(ctx); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// ReadyCheck reports components that are not healthy.
func (p *Platform) ReadyCheck(ctx context.Context) error {
	var unhealthy []string
	for _, h := range p.Components.HealthAll(ctx) {
		if !h.OK() {
			unhealthy = append(unhealthy, h.String())
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

// Runner creates a worker runner on self with the platform's logger and
// metrics.
func (p *Platform) Runner(self worker.Port) *worker.Runner {
	return worker.NewRunner(self,
		worker.WithLogger(p.Logger.WithComponent("worker")),
		worker.WithMetrics(p.Telemetry.Metrics()))
}

// SpawnWorker starts cmd as a subprocess worker owned by sc.
func (p *Platform) SpawnWorker(ctx context.Context, sc *scope.Scope, cmd command.Command) (*worker.Worker, error) {
	if p.Executor == nil {
		return nil, fmt.Errorf("platform: not started")
	}
	return worker.SpawnProcess(ctx, sc, p.Executor, cmd,
		worker.WithSpawnConfig(p.Cfg.Worker),
		worker.WithSpawnLogger(p.Logger.WithComponent("worker")))
}

// WorkerPool starts Worker.PoolSize subprocess workers running cmd.
func (p *Platform) WorkerPool(ctx context.Context, sc *scope.Scope, cmd command.Command) (*worker.Pool, error) {
	return worker.NewPool(ctx, sc, p.Cfg.Worker.PoolSize, func(ctx context.Context, sc *scope.Scope) (*worker.Worker, error) {
		return p.SpawnWorker(ctx, sc, cmd)
	})
}

func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}

