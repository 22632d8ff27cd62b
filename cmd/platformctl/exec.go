package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/goplatform/command"
	"github.com/kbukum/goplatform/platform"
	"github.com/kbukum/goplatform/process"
)

func newExecCmd(root *rootOptions) *cobra.Command {
	var (
		dir string
		env map[string]string
	)
	cmd := &cobra.Command{
		Use:   "exec <pipeline>",
		Short: "Run a command pipeline with the terminal as its stdio",
		Long: `Parse a shell-style pipeline such as "ls -1 | sort -r" and run it.
Only simple commands joined by pipes are accepted. The exit code of the
last stage becomes the exit code of platformctl.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ")
			parsed, err := command.Parse(line)
			if err != nil {
				return err
			}
			if dir != "" {
				parsed = command.WithDir(parsed, dir)
			}
			if len(env) > 0 {
				parsed = command.WithEnv(parsed, env)
			}
			parsed = command.WithStdin(parsed, command.StdinInherit())
			parsed = command.WithStdout(parsed, command.OutputInherit())
			parsed = command.WithStderr(parsed, command.OutputInherit())

			return root.withPlatform(cmd.Context(), func(ctx context.Context, p *platform.Platform) error {
				code, err := process.ExitCode(ctx, p.Executor, parsed)
				if err != nil {
					return err
				}
				if code != 0 {
					return &process.ExitError{Command: parsed.String(), Code: code}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "working directory of every stage")
	cmd.Flags().StringToStringVarP(&env, "env", "e", nil, "environment overlay, KEY=VALUE")
	return cmd
}
