package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pixie/internal/processor"
	"pixie/internal/tui"
)

var (
	batchOpts      transformOptions
	batchThreads   int
	batchRecursive bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <input-dir>",
	Short: "Process every image in a folder in parallel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		if batchOpts.output == "" {
			return fmt.Errorf("%w: --output is required", processor.ErrInvalidParameter)
		}

		cfg, err := batchOpts.config(cmd)
		if err != nil {
			return err
		}
		threads := settings.Threads
		if cmd.Flags().Changed("threads") {
			threads = batchThreads
		}
		bp, err := processor.NewBatchProcessor(cfg, threads, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		updates := make(chan processor.ProgressUpdate, 64)
		uiDone := make(chan struct{})
		go func() {
			defer close(uiDone)
			if !settings.Verbose {
				_, _ = tea.NewProgram(tui.NewModel(updates)).Run()
				// The UI can quit early on ctrl+c; stop issuing files and keep
				// draining so the collector never blocks.
				stop()
			}
			for range updates {
			}
		}()

		started := time.Now()
		stats, err := bp.ProcessDirectory(ctx, input, batchOpts.output, batchRecursive, updates)
		close(updates)
		<-uiDone
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tui.RenderSummary(tui.BatchRows(stats, time.Since(started))))
		if len(stats.Errors) > 0 {
			fmt.Fprintln(out, tui.RenderErrors(stats.Errors))
		}
		outPath := batchOpts.output
		if abs, absErr := filepath.Abs(outPath); absErr == nil {
			outPath = abs
		}
		fmt.Fprintf(out, "Output written to: %s\n", outPath)
		return nil
	},
}

func init() {
	flags := batchCmd.Flags()
	batchOpts.addOutputFlag(flags, "output directory")
	batchOpts.addGeometryFlags(flags, 800)
	batchOpts.addFormatFlag(flags)
	batchOpts.addEncodeFlags(flags)
	batchOpts.addPNGOptimizeFlag(flags)
	flags.IntVarP(&batchThreads, "threads", "t", 0, "number of parallel workers (0 = one per CPU)")
	flags.BoolVarP(&batchRecursive, "recursive", "r", false, "recurse into subdirectories")
	batchOpts.keepAspect = true
	_ = batchCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(batchCmd)
}
