package processor

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixie/pkg/imgutil"
)

func TestReadMetadataBytes_JPEG(t *testing.T) {
	t.Parallel()

	block, err := ReadMetadataBytes(jpegWithExif(t, 4, 2, buildExifTIFF()))
	require.NoError(t, err)
	require.NotNil(t, block)

	assert.True(t, block.HasExif())
	assert.True(t, block.Has("Model"))
	assert.True(t, block.Has("DateTime"))
	assert.Equal(t, 1, block.Orientation())
}

func TestReadMetadataBytes_PNG(t *testing.T) {
	t.Parallel()

	block, err := ReadMetadataBytes(buildPNGWithMetadata(t))
	require.NoError(t, err)
	require.NotNil(t, block)

	assert.True(t, block.Has("Model"))
	assert.True(t, block.Has("ModifyTime"))
}

// forgedPNG has a tEXt chunk whose declared length runs far past the end of
// the file.
func forgedPNG(t *testing.T) []byte {
	t.Helper()
	src := encodeFixture(t, 4, 4, imgutil.KindPNG)
	insertAt := len(src) - 12
	out := append([]byte{}, src[:insertAt]...)
	out = binary.BigEndian.AppendUint32(out, 0x7ffffff0)
	out = append(out, "tEXt"...)
	out = append(out, "Model\x00TestCam"...)
	return append(out, src[insertAt:]...)
}

// Not parallel: it measures allocations.
func TestReadMetadataBytes_ForgedPNGChunkLength(t *testing.T) {
	data := forgedPNG(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "forged.png")
	dst := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(src, data, 0o644))

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, metaErr := ReadMetadataBytes(data)
	_, procErr := NewImageProcessor(DefaultConfig(), nil).Process(src, dst)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, metaErr, ErrMetadataRead)
	assert.ErrorIs(t, metaErr, io.ErrUnexpectedEOF)
	assert.Error(t, procErr)
	assert.NoFileExists(t, dst)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
}

func TestReadMetadataBytes_None(t *testing.T) {
	t.Parallel()

	block, err := ReadMetadataBytes(encodeFixture(t, 4, 4, imgutil.KindPNG))
	require.NoError(t, err)
	assert.Nil(t, block)
	assert.False(t, block.HasExif())
}

func TestOrientation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 6, Orientation(jpegWithExif(t, 4, 2, buildOrientedExifTIFF(6))))
	assert.Equal(t, 1, Orientation(jpegWithExif(t, 4, 2, buildOrientedExifTIFF(9))))
	assert.Equal(t, 1, Orientation(encodeFixture(t, 4, 2, imgutil.KindJPEG)))
	assert.Equal(t, 1, Orientation([]byte("garbage")))
}

func TestApplyOrientation(t *testing.T) {
	t.Parallel()

	src := gradient(4, 2)
	for o, swapped := range map[int]bool{1: false, 2: false, 3: false, 4: false, 5: true, 6: true, 7: true, 8: true} {
		out := applyOrientation(src, o)
		if swapped {
			assert.Equal(t, 2, out.Bounds().Dx(), "orientation %d", o)
			assert.Equal(t, 4, out.Bounds().Dy(), "orientation %d", o)
		} else {
			assert.Equal(t, 4, out.Bounds().Dx(), "orientation %d", o)
			assert.Equal(t, 2, out.Bounds().Dy(), "orientation %d", o)
		}
	}
}

func TestStripMetadata_JPEG(t *testing.T) {
	t.Parallel()

	src := jpegWithExif(t, 4, 2, buildExifTIFF())
	stripped, err := StripMetadata(src)
	require.NoError(t, err)

	assert.Less(t, len(stripped), len(src))
	assert.False(t, bytes.Contains(stripped, []byte("TestCam")))

	block, err := ReadMetadataBytes(stripped)
	require.NoError(t, err)
	assert.False(t, block.HasExif())

	raster, err := NewLoader(nil).LoadFromBytes(stripped)
	require.NoError(t, err)
	assert.Equal(t, 4, raster.Width)
}

func TestStripMetadata_PNG(t *testing.T) {
	t.Parallel()

	stripped, err := StripMetadata(buildPNGWithMetadata(t))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(stripped, []byte("TestCam")))

	block, err := ReadMetadataBytes(stripped)
	require.NoError(t, err)
	assert.Nil(t, block)

	_, err = NewLoader(nil).LoadFromBytes(stripped)
	require.NoError(t, err)
}

func TestStripMetadata_Passthrough(t *testing.T) {
	t.Parallel()

	gif := encodeFixture(t, 4, 4, imgutil.KindGIF)
	out, err := StripMetadata(gif)
	require.NoError(t, err)
	assert.Equal(t, gif, out)
}

func TestStripMetadata_Corrupt(t *testing.T) {
	t.Parallel()

	_, err := StripMetadata([]byte{0xff, 0xd8, 0xff, 0xe1, 0x00})
	assert.ErrorIs(t, err, ErrProcessing)

	_, err = StripMetadata(forgedPNG(t))
	assert.ErrorIs(t, err, ErrProcessing)
	assert.ErrorIs(t, err, io.EOF)
}

func TestInjectJPEGSegments(t *testing.T) {
	t.Parallel()

	src := jpegWithExif(t, 4, 2, buildExifTIFF())
	segments, err := jpegMetadataSegments(src)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, byte(markerAPP1), segments[0].marker)

	plain := encodeFixture(t, 4, 2, imgutil.KindJPEG)
	out, err := injectJPEGSegments(plain, segments)
	require.NoError(t, err)

	block, err := ReadMetadataBytes(out)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.True(t, block.Has("Model"))

	_, err = injectJPEGSegments([]byte("nope"), segments)
	assert.Error(t, err)
}

func TestHighlights(t *testing.T) {
	t.Parallel()

	block := &MetadataBlock{Tags: []MetadataTag{
		{IfdPath: "IFD", Name: "Make", Value: "Apple"},
		{IfdPath: "IFD", Name: "Model", Value: "iPhone 15"},
		{IfdPath: "IFD/GPSInfo", Name: "GPSLatitude", Value: "[35/1 30/1 0/1]"},
		{IfdPath: "IFD/GPSInfo", Name: "GPSLatitudeRef", Value: "N"},
		{IfdPath: "IFD/GPSInfo", Name: "GPSLongitude", Value: "[139/1 45/1 0/1]"},
		{IfdPath: "IFD/GPSInfo", Name: "GPSLongitudeRef", Value: "W"},
		{IfdPath: "IFD/Exif", Name: "DateTimeOriginal", Value: "2024:01:02 03:04:05"},
		{IfdPath: "IFD/Exif", Name: "BodySerialNumber", Value: "X1"},
	}}

	got := make(map[string]string)
	for _, h := range block.Highlights() {
		got[h.Kind] = h.Message
	}
	assert.Equal(t, "Apple iPhone 15 (smartphone)", got["Device"])
	assert.Equal(t, "35.50000, -139.75000", got["Location"])
	assert.Equal(t, "2024-01-02 03:04:05", got["Captured"])
	assert.Contains(t, got, "Identifier")

	var empty *MetadataBlock
	assert.Empty(t, empty.Highlights())
}
