package processor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixie/pkg/imgutil"
)

func TestCalculateSavings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 50.0, CalculateSavings(1000, 500))
	assert.Equal(t, 0.0, CalculateSavings(1000, 1200))
	assert.Equal(t, 0.0, CalculateSavings(0, 0))
	assert.Equal(t, 100.0, CalculateSavings(1000, 0))
}

func TestResolveFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, imgutil.KindWebP, ResolveFormat(FormatWebP, imgutil.KindPNG, "out.jpg"))
	assert.Equal(t, imgutil.KindPNG, ResolveFormat(FormatSameAsInput, imgutil.KindPNG, "out.jpg"))
	assert.Equal(t, imgutil.KindGIF, ResolveFormat(FormatNone, imgutil.KindPNG, "out.GIF"))
	assert.Equal(t, imgutil.KindJPEG, ResolveFormat(FormatNone, imgutil.KindPNG, "out"))
	assert.Equal(t, imgutil.KindTIFF, ResolveFormat(FormatSameAsInput, imgutil.KindUnknown, "out.tif"))
}

func TestCompressor_EncodeRoundTrip(t *testing.T) {
	t.Parallel()

	kinds := []imgutil.Kind{
		imgutil.KindJPEG,
		imgutil.KindPNG,
		imgutil.KindGIF,
		imgutil.KindBMP,
		imgutil.KindTIFF,
		imgutil.KindWebP,
	}
	for _, kind := range kinds {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()
			data, err := NewCompressor(80, false, true).Encode(gradient(32, 24), kind)
			require.NoError(t, err)
			assert.Equal(t, kind, imgutil.SniffBytes(data))

			raster, err := NewLoader(nil).LoadFromBytes(data)
			require.NoError(t, err)
			assert.Equal(t, 32, raster.Width)
			assert.Equal(t, 24, raster.Height)
			assert.Equal(t, kind, raster.Format)
		})
	}
}

func TestCompressor_Encode(t *testing.T) {
	t.Parallel()

	t.Run("progressive JPEG", func(t *testing.T) {
		t.Parallel()
		_, err := NewCompressor(80, true, false).Encode(gradient(4, 4), imgutil.KindJPEG)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("unknown container", func(t *testing.T) {
		t.Parallel()
		_, err := NewCompressor(80, false, false).Encode(gradient(4, 4), imgutil.KindUnknown)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("lower quality is smaller", func(t *testing.T) {
		t.Parallel()
		img := gradient(128, 128)
		low, err := NewCompressor(10, false, false).Encode(img, imgutil.KindJPEG)
		require.NoError(t, err)
		high, err := NewCompressor(95, false, false).Encode(img, imgutil.KindJPEG)
		require.NoError(t, err)
		assert.Less(t, len(low), len(high))
	})

	t.Run("png optimize is not larger", func(t *testing.T) {
		t.Parallel()
		img := gradient(128, 128)
		plain, err := NewCompressor(85, false, false).Encode(img, imgutil.KindPNG)
		require.NoError(t, err)
		optimized, err := NewCompressor(85, false, true).Encode(img, imgutil.KindPNG)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(optimized), len(plain))
	})
}

func TestCompressor_Save(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	n, err := NewCompressor(85, false, true).Save(gradient(8, 8), path, imgutil.KindPNG)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.EqualValues(t, len(data), n)
	assert.True(t, bytes.HasPrefix(data, pngSignature))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}
