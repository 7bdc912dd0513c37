// Package cli implements seatctl, the operator tool for the seat store.
package cli

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/Domenick1991/seatbooking/config"
	"github.com/Domenick1991/seatbooking/internal/bootstrap"
	"github.com/Domenick1991/seatbooking/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the seatctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "seatctl",
		Short: "Operate the seat reservation store",
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yaml", "path to the YAML config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	return config.LoadConfig(o.ConfigPath)
}

func (o *RootOptions) logger(cfg *config.Config) hclog.Logger {
	logCfg := cfg.Log
	if o.Verbose {
		logCfg.Level = "debug"
	}
	return logging.New("seatctl", logCfg)
}

// openApp wires the workflows against the configured store.
func (o *RootOptions) openApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.NewApp(ctx, cfg, o.logger(cfg))
}
