package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pixie/internal/processor"
	"pixie/internal/tui"
	"pixie/pkg/imgutil"
)

// transformOptions holds the flag values of one transforming command.
type transformOptions struct {
	output        string
	width         int
	height        int
	scale         float64
	quality       int
	format        string
	keepAspect    bool
	strip         bool
	algorithm     string
	progressive   bool
	noPNGOptimize bool
}

func (o *transformOptions) addOutputFlag(flags *pflag.FlagSet, usage string) {
	flags.StringVarP(&o.output, "output", "o", "", usage)
}

func (o *transformOptions) addGeometryFlags(flags *pflag.FlagSet, defaultWidth int) {
	flags.IntVarP(&o.width, "width", "W", defaultWidth, "width in pixels (0 = auto)")
	flags.IntVarP(&o.height, "height", "H", 0, "height in pixels (0 = auto)")
	flags.StringVarP(&o.algorithm, "algorithm", "A", processor.Lanczos3.String(), "resize algorithm: nearest, bilinear, bicubic, lanczos3")
}

func (o *transformOptions) addEncodeFlags(flags *pflag.FlagSet) {
	flags.IntVarP(&o.quality, "quality", "q", 85, "JPEG/WebP quality (1-100)")
	flags.BoolVarP(&o.strip, "strip-metadata", "m", false, "strip metadata (EXIF, XMP, ICC, text chunks)")
}

func (o *transformOptions) addFormatFlag(flags *pflag.FlagSet) {
	flags.StringVarP(&o.format, "format", "f", "", "output format: jpeg, png, webp, same")
}

func (o *transformOptions) addProgressiveFlag(flags *pflag.FlagSet) {
	flags.BoolVar(&o.progressive, "progressive", false, "use progressive JPEG encoding (not supported)")
}

func (o *transformOptions) addPNGOptimizeFlag(flags *pflag.FlagSet) {
	flags.BoolVar(&o.noPNGOptimize, "no-png-optimize", false, "disable maximum PNG compression")
}

// config turns the flag values into a validated processor.Config. Flags the
// user did not set fall back to the loaded settings.
func (o *transformOptions) config(cmd *cobra.Command) (processor.Config, error) {
	cfg := processor.DefaultConfig()
	cfg.Width = o.width
	cfg.Height = o.height
	cfg.Scale = o.scale / 100
	cfg.KeepAspect = o.keepAspect
	cfg.StripMetadata = o.strip
	cfg.Progressive = o.progressive
	cfg.PNGOptimize = !o.noPNGOptimize
	cfg.MaxFileSize = settings.MaxFileSize * 1024 * 1024

	cfg.Quality = settings.Quality
	if cmd.Flags().Changed("quality") {
		cfg.Quality = o.quality
	}

	algorithm := settings.Algorithm
	if cmd.Flags().Changed("algorithm") {
		algorithm = o.algorithm
	}
	a, err := processor.ParseAlgorithm(algorithm)
	if err != nil {
		return cfg, err
	}
	cfg.Algorithm = a

	f, err := processor.ParseFormat(o.format)
	if err != nil {
		return cfg, err
	}
	cfg.Format = f

	return cfg, nil
}

// generateOutputPath names a sibling of input as stem_suffix_unix.ext,
// adding a counter when that name is taken. An explicit format decides the
// extension.
func generateOutputPath(input, suffix string, format processor.Format, now time.Time) string {
	dir := filepath.Dir(input)
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(filepath.Base(input), ext)
	if kind := format.Kind(); kind != imgutil.KindUnknown {
		ext = kind.Extension()
	}

	base := fmt.Sprintf("%s_%s_%d", stem, suffix, now.Unix())
	candidate := filepath.Join(dir, base+ext)
	for n := 1; exists(candidate); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// runSingle processes one file and prints its summary.
func runSingle(cmd *cobra.Command, input string, o *transformOptions, cfg processor.Config, suffix string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	output := o.output
	if output == "" {
		output = generateOutputPath(input, suffix, cfg.Format, time.Now())
	}

	stats, err := processor.NewImageProcessor(cfg, logger).Process(input, output)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.RenderSummary(tui.StatsRows(stats)))
	fmt.Fprintf(out, "Written to: %s\n", output)
	return nil
}
