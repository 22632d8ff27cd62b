package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/goplatform/command"
	"github.com/kbukum/goplatform/platform"
	"github.com/kbukum/goplatform/scope"
	"github.com/kbukum/goplatform/stream"
	"github.com/kbukum/goplatform/worker"
)

func newWorkerCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Serve or drive workers speaking the frame protocol over stdio",
	}
	cmd.AddCommand(newWorkerServeCmd(root), newWorkerRunCmd(root))
	return cmd
}

// shout is the request handler of the demo worker: every word of the
// message comes back upper-cased, one response per word.
func shout(ctx context.Context, msg string, emit func(string) error) error {
	for _, word := range strings.Fields(msg) {
		if err := emit(strings.ToUpper(word)); err != nil {
			return err
		}
	}
	return nil
}

func newWorkerServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:    "serve",
		Short:  "Run as a worker on stdin and stdout until disposed",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withPlatform(cmd.Context(), func(ctx context.Context, p *platform.Platform) error {
				r := p.Runner(worker.NewStreamPort(os.Stdin, os.Stdout))
				return worker.Serve(ctx, r.Start(worker.NewLatch()), shout)
			})
		},
	}
}

func newWorkerRunCmd(root *rootOptions) *cobra.Command {
	var poolSize int
	cmd := &cobra.Command{
		Use:   "run <message>...",
		Short: "Start a pool of workers and send each message to it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if poolSize > 0 {
				root.cfg.Worker.PoolSize = poolSize
			}
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			serveArgs := []string{"worker", "serve"}
			if root.configFile != "" {
				serveArgs = append(serveArgs, "--config", root.configFile)
			}
			if root.envFile != "" {
				serveArgs = append(serveArgs, "--env-file", root.envFile)
			}

			return root.withPlatform(cmd.Context(), func(ctx context.Context, p *platform.Platform) error {
				return scope.Use(ctx, func(ctx context.Context, sc *scope.Scope) error {
					pool, err := p.WorkerPool(ctx, sc, command.Make(exe, serveArgs...))
					if err != nil {
						return err
					}
					replies := make([][]string, len(args))
					g, gctx := errgroup.WithContext(ctx)
					for i, msg := range args {
						w := pool.Next()
						g.Go(func() (err error) {
							replies[i], err = stream.Collect(gctx, worker.Execute[string, string](w, msg))
							return err
						})
					}
					if err := g.Wait(); err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					for _, words := range replies {
						fmt.Fprintln(out, strings.Join(words, " "))
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().IntVarP(&poolSize, "pool", "n", 0, "number of workers (default from config)")
	return cmd
}
