package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/platform"
)

func newKVCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kv",
		Short: "Read and write the configured key-value store",
	}

	run := func(fn func(ctx context.Context, cmd *cobra.Command, p *platform.Platform, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return root.withPlatform(cmd.Context(), func(ctx context.Context, p *platform.Platform) error {
				return fn(ctx, cmd, p, args)
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the value of a key",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, cmd *cobra.Command, p *platform.Platform, args []string) error {
				v, ok, err := p.KV.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return errors.NotFound("key", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a key",
			Args:  cobra.ExactArgs(2),
			RunE: run(func(ctx context.Context, _ *cobra.Command, p *platform.Platform, args []string) error {
				return p.KV.Set(ctx, args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:     "rm <key>",
			Aliases: []string{"remove"},
			Short:   "Remove a key",
			Args:    cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, _ *cobra.Command, p *platform.Platform, args []string) error {
				return p.KV.Remove(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "size",
			Short: "Print the number of keys",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, cmd *cobra.Command, p *platform.Platform, _ []string) error {
				n, err := p.KV.Size(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every key",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, _ *cobra.Command, p *platform.Platform, _ []string) error {
				return p.KV.Clear(ctx)
			}),
		},
	)
	return cmd
}
