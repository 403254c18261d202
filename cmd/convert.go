package cmd

import (
	"github.com/spf13/cobra"
)

var convertOpts transformOptions

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <input>",
	Short: "Convert an image to another format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := convertOpts.config(cmd)
		if err != nil {
			return err
		}
		return runSingle(cmd, args[0], &convertOpts, cfg, "converted")
	},
}

func init() {
	flags := convertCmd.Flags()
	convertOpts.addOutputFlag(flags, "output image file (default: <input>_converted_<time>.<ext>)")
	convertOpts.addFormatFlag(flags)
	convertOpts.addEncodeFlags(flags)
	_ = convertCmd.MarkFlagRequired("format")

	rootCmd.AddCommand(convertCmd)
}
