package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"pixie/internal/processor"
	"pixie/internal/tui"
	"pixie/pkg/imgutil"
)

var infoExif bool

var infoCmd = &cobra.Command{
	Use:   "info [flags] <input>",
	Short: "Show information about an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		info, err := processor.NewImageProcessor(processor.DefaultConfig(), logger).Info(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, infoFileStyle.Render(path))
		fmt.Fprintln(out, tui.RenderSummary(infoRows(info)))

		if !infoExif {
			return nil
		}
		block, err := processor.ReadMetadata(path)
		if err != nil {
			return err
		}
		printMetadata(out, block)
		return nil
	},
}

func infoRows(info processor.ImageInfo) []tui.SummaryRow {
	return []tui.SummaryRow{
		{Label: "Format", Value: info.Format.String()},
		{Label: "Dimensions", Value: fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{Label: "Aspect ratio", Value: fmt.Sprintf("%.3f", info.AspectRatio())},
		{Label: "File size", Value: imgutil.FormatSize(info.FileSize)},
		{Label: "Color", Value: info.ColorModel},
		{Label: "Animated", Value: yesNo(info.Animated)},
		{Label: "EXIF", Value: yesNo(info.HasExif)},
	}
}

func printMetadata(w io.Writer, block *processor.MetadataBlock) {
	if block == nil || len(block.Tags) == 0 {
		fmt.Fprintf(w, "  %s %s\n", infoBulletStyle.Render("-"), infoDimStyle.Render("no metadata"))
		return
	}

	groups := lo.GroupBy(block.Tags, func(tag processor.MetadataTag) string { return tag.IfdPath })
	paths := lo.Keys(groups)
	slices.Sort(paths)
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", infoCategoryStyle.Render(p+":"))
		for _, tag := range groups[p] {
			fmt.Fprintf(w, "    %s %s %s\n",
				infoBulletStyle.Render("-"),
				infoValueStyle.Render(tag.Name),
				infoDimStyle.Render(tag.Value),
			)
		}
	}

	if highlights := block.Highlights(); len(highlights) > 0 {
		fmt.Fprintf(w, "  %s\n", infoCategoryStyle.Render("Highlights:"))
		for _, h := range highlights {
			fmt.Fprintf(w, "    %s %s %s\n",
				infoBulletStyle.Render("-"),
				infoValueStyle.Render(h.Kind+":"),
				infoDimStyle.Render(h.Message),
			)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var (
	infoFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	infoCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	infoValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	infoDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	infoBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	infoCmd.Flags().BoolVarP(&infoExif, "exif", "e", false, "show all metadata tags")

	rootCmd.AddCommand(infoCmd)
}
