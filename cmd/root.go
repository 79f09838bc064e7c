// Package cmd defines and implements the CLI commands for the tracklog executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/tracklog/internal/app"
	"github.com/JakeFAU/tracklog/internal/config"
)

const shutdownTimeout = 10 * time.Second

// newApp is the application factory. It's a variable so tests can inject
// their own logger and sinks.
var newApp = func(ctx context.Context, cfg config.Config) (*app.App, error) {
	return app.NewApp(ctx, cfg, app.Options{})
}

// cli carries persistent flag values and the app built for the invocation.
type cli struct {
	cfgFile  string
	maxDepth int
	app      *app.App
}

// newRootCmd creates and configures the root command.
func (c *cli) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracklog",
		Short: "Throttled, hierarchical progress logging",
		Long: `tracklog runs workloads that report progress as log lines. Step updates
are throttled per task, sub-tasks nest under their parent's name, and tasks
nested deeper than --max-depth keep quiet about their steps.`,
		SilenceUsage: true,

		// Runs after flags are parsed but before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("max-depth") {
				cfg.Progress.MaxDepth = c.maxDepth
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			c.app = a
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().IntVar(&c.maxDepth, "max-depth", -1,
		"deepest task level that logs step updates (negative for unbounded)")

	cmd.AddCommand(c.newScanCmd(), c.newDemoCmd())
	return cmd
}

// close releases the app even when the subcommand failed.
func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := c.app.Close(ctx)
	c.app = nil
	return err
}

func (c *cli) resolveApp() (*app.App, error) {
	if c.app == nil {
		return nil, errors.New("application services not initialized")
	}
	return c.app, nil
}

// run executes the command tree with args and always closes the app.
func run(ctx context.Context, args []string) error {
	c := &cli{}
	root := c.newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, c.close())
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "tracklog:", err)
		stop()
		os.Exit(1)
	}
}
