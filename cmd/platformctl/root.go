package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/goplatform/config"
	"github.com/kbukum/goplatform/platform"
	"github.com/kbukum/goplatform/version"
)

const serviceName = "platformctl"

type rootOptions struct {
	configFile string
	envFile    string
	cfg        platform.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Run commands, key-value operations and workers on the platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var loaderOpts []config.LoaderOption
			if opts.configFile != "" {
				loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
			}
			if opts.envFile != "" {
				loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
			}
			return config.LoadConfig(serviceName, &opts.cfg, loaderOpts...)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: searched as config/platformctl.yml, config.yml, ...)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file to load")

	cmd.AddCommand(newExecCmd(opts), newKVCmd(opts), newWorkerCmd(opts), newVersionCmd())
	cmd.Version = version.Get().String()
	return cmd
}

// withPlatform builds the platform from the loaded config and runs fn
// between Start and Stop.
func (o *rootOptions) withPlatform(ctx context.Context, fn func(ctx context.Context, p *platform.Platform) error) error {
	if o.cfg.Name == "" {
		o.cfg.Name = serviceName
	}
	if o.cfg.Version == "" {
		o.cfg.Version = version.Get().String()
	}
	p, err := platform.New(&o.cfg)
	if err != nil {
		return err
	}
	return p.Run(ctx, fn)
}
