package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/tracklog/internal/progress"
	"github.com/JakeFAU/tracklog/internal/unit"
)

type demoOptions struct {
	children int
	steps    int
	depth    int
	tick     time.Duration
}

// newDemoCmd creates the 'demo' subcommand, a simulated nested build.
func (c *cli) newDemoCmd() *cobra.Command {
	opts := demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Simulate a nested task tree",
		Long: `Runs a fake build with --children sub-tasks of --steps steps each, nested
--depth levels deep, sleeping --tick between steps. Useful for seeing the
throttle and --max-depth in action.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.resolveApp()
			if err != nil {
				return err
			}
			if opts.children < 0 || opts.steps < 0 || opts.depth < 1 {
				return fmt.Errorf("children and steps must be >= 0 and depth >= 1")
			}
			return runDemo(cmd.Context(), a.NewTracker("demo"), opts)
		},
	}
	cmd.Flags().IntVar(&opts.children, "children", 3, "sub-tasks per level")
	cmd.Flags().IntVar(&opts.steps, "steps", 20, "steps per sub-task")
	cmd.Flags().IntVar(&opts.depth, "depth", 2, "levels of nesting below the root")
	cmd.Flags().DurationVar(&opts.tick, "tick", 50*time.Millisecond, "pause between steps")
	return cmd
}

func runDemo(ctx context.Context, root progress.Progress, opts demoOptions) error {
	root.Init(progress.Some(opts.children), unit.Range("tasks").WithPercentage())
	root.Set(0)
	for i := 0; i < opts.children; i++ {
		if err := demoTask(ctx, root.AddChild(fmt.Sprintf("task-%d", i+1)), opts, 1); err != nil {
			root.Message(progress.MessageFailure, err.Error())
			return err
		}
		root.IncBy(1)
	}
	root.Message(progress.MessageSuccess, fmt.Sprintf("%d tasks complete", opts.children))
	return nil
}

func demoTask(ctx context.Context, p progress.Progress, opts demoOptions, level int) error {
	p.Init(progress.Some(opts.steps), unit.Label("steps").WithPercentage())
	for i := 0; i < opts.steps; i++ {
		if err := sleep(ctx, opts.tick); err != nil {
			p.Message(progress.MessageFailure, "interrupted")
			return err
		}
		p.IncBy(1)
	}
	if level < opts.depth {
		if err := demoTask(ctx, p.AddChild("sub"), opts, level+1); err != nil {
			return err
		}
	}
	p.Message(progress.MessageSuccess, "done")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
