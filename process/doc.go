// Package process spawns OS processes and exposes them as scoped handles.
//
// A command.Command is started with an Executor inside a scope.Scope:
//
//	err := scope.Use(ctx, func(ctx context.Context, sc *scope.Scope) error {
//		p, err := ex.Start(ctx, sc, command.Pipe(command.Make("ls"), command.Make("sort")))
//		if err != nil {
//			return err
//		}
//		out, err := stream.Text(ctx, p.Stdout())
//		...
//	})
//
// Closing the scope guarantees the process is no longer running: a process
// that has not exited receives the configured kill signal, then SIGKILL
// after the grace period. Every process leads its own process group unless
// Config.SharedProcessGroup is set, so signals reach its children too.
//
// Stdout and stderr are byte streams; stdin is a sink. Pipelines connect
// each stage's stdout to the next stage's stdin and return the last stage.
package process
