package cmd

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixie/internal/processor"
	"pixie/pkg/imgutil"
)

func TestGenerateOutputPath(t *testing.T) {
	dir := t.TempDir()
	now := time.Unix(1700000000, 0)
	input := filepath.Join(dir, "photo.jpg")

	first := generateOutputPath(input, "resized", processor.FormatNone, now)
	assert.Equal(t, filepath.Join(dir, "photo_resized_1700000000.jpg"), first)

	require.NoError(t, os.WriteFile(first, []byte("x"), 0o644))
	second := generateOutputPath(input, "resized", processor.FormatNone, now)
	assert.Equal(t, filepath.Join(dir, "photo_resized_1700000000_1.jpg"), second)

	converted := generateOutputPath(input, "converted", processor.FormatWebP, now)
	assert.Equal(t, filepath.Join(dir, "photo_converted_1700000000.webp"), converted)

	same := generateOutputPath(input, "optimized", processor.FormatSameAsInput, now)
	assert.Equal(t, ".jpg", filepath.Ext(same))
}

func TestTransformOptionsConfig(t *testing.T) {
	settings = Settings{Quality: 70, Algorithm: "bilinear", MaxFileSize: 2}
	t.Cleanup(func() { settings = Settings{} })

	newCmd := func() (*cobra.Command, *transformOptions) {
		o := &transformOptions{}
		c := &cobra.Command{Use: "x"}
		o.addGeometryFlags(c.Flags(), 0)
		o.addEncodeFlags(c.Flags())
		o.addFormatFlag(c.Flags())
		c.Flags().Float64VarP(&o.scale, "scale", "s", 0, "")
		return c, o
	}

	t.Run("settings fill unset flags", func(t *testing.T) {
		c, o := newCmd()
		require.NoError(t, c.Flags().Parse([]string{"-s", "50"}))
		cfg, err := o.config(c)
		require.NoError(t, err)
		assert.Equal(t, 70, cfg.Quality)
		assert.Equal(t, processor.Bilinear, cfg.Algorithm)
		assert.Equal(t, 0.5, cfg.Scale)
		assert.EqualValues(t, 2*1024*1024, cfg.MaxFileSize)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("flags win", func(t *testing.T) {
		c, o := newCmd()
		require.NoError(t, c.Flags().Parse([]string{"-q", "40", "-A", "nearest", "-f", "png"}))
		cfg, err := o.config(c)
		require.NoError(t, err)
		assert.Equal(t, 40, cfg.Quality)
		assert.Equal(t, processor.Nearest, cfg.Algorithm)
		assert.Equal(t, processor.FormatPNG, cfg.Format)
	})

	t.Run("bad values", func(t *testing.T) {
		c, o := newCmd()
		require.NoError(t, c.Flags().Parse([]string{"-f", "avif"}))
		_, err := o.config(c)
		assert.ErrorIs(t, err, processor.ErrInvalidParameter)

		c, o = newCmd()
		require.NoError(t, c.Flags().Parse([]string{"-q", "0"}))
		cfg, err := o.config(c)
		require.NoError(t, err)
		assert.ErrorIs(t, cfg.Validate(), processor.ErrInvalidParameter)
	})
}

// runRoot executes the root command. Flag values stick between runs in one
// process, so callers pass every flag they depend on.
func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestResizeCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	require.NoError(t, imaging.Save(imaging.New(40, 20, color.NRGBA{R: 200, A: 255}), input))

	tests := []struct {
		name  string
		args  []string
		wantW int
		wantH int
	}{
		{"width only", []string{"-W", "20", "-H", "0", "-a=false"}, 20, 10},
		{"stretch by default", []string{"-W", "20", "-H", "5", "-a=false"}, 20, 5},
		{"keep aspect fits inside", []string{"-W", "20", "-H", "5", "-a"}, 10, 5},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, fmt.Sprintf("out%d.jpg", i))
			out := runRoot(t, append([]string{"resize", input, "-o", output}, tt.args...)...)

			img, err := imaging.Open(output)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, img.Bounds().Dx())
			assert.Equal(t, tt.wantH, img.Bounds().Dy())
			assert.Contains(t, out, "Written to: "+output)
		})
	}
}

func TestOptimizeCommandFollowsOutputExtension(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.jpg")
	require.NoError(t, imaging.Save(imaging.New(16, 16, color.NRGBA{B: 200, A: 255}), input))

	toPNG := filepath.Join(dir, "out.png")
	runRoot(t, "optimize", input, "-o", toPNG)
	assert.Equal(t, imgutil.KindPNG, lo.Must(imgutil.SniffFile(toPNG)))

	keep := filepath.Join(dir, "same.jpg")
	runRoot(t, "optimize", input, "-o", keep)
	assert.Equal(t, imgutil.KindJPEG, lo.Must(imgutil.SniffFile(keep)))
}
