package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/tracklog/internal/scan"
)

// newScanCmd creates the 'scan' subcommand.
func (c *cli) newScanCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Walk a directory tree and log progress",
		Long: `Walks every top-level directory of <dir> as its own sub-task, logging bytes
seen per directory and directories finished overall.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.resolveApp()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = a.GetConfig().Scan.Concurrency
			}
			logger := a.GetLogger().Named("scan")
			scanner := scan.New(afero.NewOsFs(), concurrency, logger)
			sum, err := scanner.Run(cmd.Context(), args[0], a.NewTracker("scan"))
			if err != nil {
				return fmt.Errorf("run scan: %w", err)
			}
			logger.Info("scan command finished",
				zap.Int("dirs", sum.Dirs),
				zap.Int("files", sum.Files),
				zap.Int64("bytes", sum.Bytes))
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "top-level directories walked at once (default from config)")
	return cmd
}
