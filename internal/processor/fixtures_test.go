package processor

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"pixie/pkg/imgutil"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 0x80,
				A: 0xff,
			})
		}
	}
	return img
}

func encodeFixture(t *testing.T, w, h int, kind imgutil.Kind) []byte {
	t.Helper()
	data, err := NewCompressor(90, false, false).Encode(gradient(w, h), kind)
	require.NoError(t, err)
	return data
}

func writeFixture(t *testing.T, path string, w, h int, kind imgutil.Kind) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, encodeFixture(t, w, h, kind), 0o644))
}

// jpegWithExif encodes a w x h JPEG carrying tiff as its APP1 Exif segment.
func jpegWithExif(t *testing.T, w, h int, tiff []byte) []byte {
	t.Helper()
	payload := append([]byte("Exif\x00\x00"), tiff...)
	return lo.Must(injectJPEGSegments(encodeFixture(t, w, h, imgutil.KindJPEG), []jpegSegment{
		{marker: markerAPP1, payload: payload},
	}))
}

// buildExifTIFF is a little-endian IFD0 with Model and DateTime.
func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}

// buildOrientedExifTIFF is buildExifTIFF plus an Orientation entry.
func buildOrientedExifTIFF(orientation uint16) []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))

	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(50))

	_ = binary.Write(&tiff, binary.LittleEndian, uint16(exifOrientationTag))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, orientation)
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0))

	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(58))

	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}

func buildPNGWithMetadata(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	data := buf.Bytes()
	require.Equal(t, "IEND", string(data[len(data)-8:len(data)-4]))

	insertAt := len(data) - 12
	out := append([]byte{}, data[:insertAt]...)
	out = append(out, buildPNGChunk("tEXt", []byte("Model\x00TestCam"))...)
	out = append(out, buildPNGChunk("tIME", []byte{0x07, 0xE8, 0x01, 0x02, 0x03, 0x04, 0x05})...)
	out = append(out, buildPNGChunk("eXIf", buildExifTIFF())...)
	out = append(out, data[insertAt:]...)
	return out
}

func buildPNGChunk(chunkType string, data []byte) []byte {
	chunkTypeBytes := []byte(chunkType)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(data)))
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, crc32.ChecksumIEEE(append(chunkTypeBytes, data...)))

	chunk := make([]byte, 0, 12+len(data))
	chunk = append(chunk, lenBuf...)
	chunk = append(chunk, chunkTypeBytes...)
	chunk = append(chunk, data...)
	chunk = append(chunk, crcBuf...)
	return chunk
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	raster, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	return raster.Width, raster.Height
}
