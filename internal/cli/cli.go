// Package cli builds the command tree: one subcommand per service plus dev helpers.
package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Options are the flags every service command shares.
type Options struct {
	ConfigPath    string
	MaxConcurrent int
	Debug         bool
}

// Service is one runnable stage.
type Service struct {
	Name    string
	Aliases []string
	Short   string
	Run     func(ctx context.Context, opts Options) error
}

// NewRootCommand wires services under a root command. SIGINT and SIGTERM
// cancel the context handed to a running service.
func NewRootCommand(services ...Service) *cobra.Command {
	opts := Options{}

	root := &cobra.Command{
		Use:           "nearest-departures",
		Short:         "Finds the nearest public transport departures for a street address",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config/config.yaml", "Path to the YAML config file")
	root.PersistentFlags().IntVar(&opts.MaxConcurrent, "max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logs")

	for _, svc := range services {
		run := svc.Run
		root.AddCommand(&cobra.Command{
			Use:     svc.Name,
			Aliases: svc.Aliases,
			Short:   svc.Short,
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if opts.MaxConcurrent < 1 {
					return errors.New("--max-concurrent must be >= 1")
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return run(ctx, opts)
			},
		})
	}

	root.AddCommand(newTokenCommand(&opts))
	return root
}
