package cmd

import (
	"github.com/spf13/cobra"
)

var optimizeOpts transformOptions

var optimizeCmd = &cobra.Command{
	Use:   "optimize [flags] <input>",
	Short: "Recompress an image without resizing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := optimizeOpts.config(cmd)
		if err != nil {
			return err
		}
		return runSingle(cmd, args[0], &optimizeOpts, cfg, "optimized")
	},
}

func init() {
	flags := optimizeCmd.Flags()
	optimizeOpts.addOutputFlag(flags, "output image file (default: <input>_optimized_<time>.<ext>)")
	optimizeOpts.addEncodeFlags(flags)
	optimizeOpts.addProgressiveFlag(flags)
	optimizeOpts.addPNGOptimizeFlag(flags)

	rootCmd.AddCommand(optimizeCmd)
}
