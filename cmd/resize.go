package cmd

import (
	"github.com/spf13/cobra"
)

var resizeOpts transformOptions

var resizeCmd = &cobra.Command{
	Use:   "resize [flags] <input>",
	Short: "Resize a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resizeOpts.config(cmd)
		if err != nil {
			return err
		}
		cfg.RequireResize = true
		return runSingle(cmd, args[0], &resizeOpts, cfg, "resized")
	},
}

func init() {
	flags := resizeCmd.Flags()
	resizeOpts.addOutputFlag(flags, "output image file (default: <input>_resized_<time>.<ext>)")
	resizeOpts.addGeometryFlags(flags, 0)
	flags.Float64VarP(&resizeOpts.scale, "scale", "s", 0, "scale percentage, overrides width/height")
	flags.BoolVarP(&resizeOpts.keepAspect, "keep-aspect", "a", false, "fit inside width x height instead of stretching when both are set")
	resizeOpts.addEncodeFlags(flags)
	resizeOpts.addFormatFlag(flags)
	resizeOpts.addProgressiveFlag(flags)

	rootCmd.AddCommand(resizeCmd)
}
