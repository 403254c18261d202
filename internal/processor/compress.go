package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"pixie/pkg/imgutil"
)

// Compressor serializes rasters into image containers.
type Compressor struct {
	quality     int
	progressive bool
	pngOptimize bool
}

func NewCompressor(quality int, progressive, pngOptimize bool) *Compressor {
	return &Compressor{quality: quality, progressive: progressive, pngOptimize: pngOptimize}
}

// ResolveFormat picks the output container: an explicit format first
// (FormatSameAsInput meaning the source container), then the destination
// extension, then JPEG.
func ResolveFormat(explicit Format, source imgutil.Kind, destPath string) imgutil.Kind {
	switch explicit {
	case FormatJPEG, FormatPNG, FormatWebP:
		return explicit.Kind()
	case FormatSameAsInput:
		if source != imgutil.KindUnknown {
			return source
		}
	}
	if kind := imgutil.KindFromPath(destPath); kind != imgutil.KindUnknown {
		return kind
	}
	return imgutil.KindJPEG
}

// Encode serializes img. Quality only applies to JPEG and WebP.
func (c *Compressor) Encode(img image.Image, kind imgutil.Kind) ([]byte, error) {
	if c.progressive && kind == imgutil.KindJPEG {
		return nil, fmt.Errorf("%w: progressive JPEG", ErrUnsupportedFormat)
	}

	var buf bytes.Buffer
	var err error
	switch kind {
	case imgutil.KindJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.quality))
	case imgutil.KindPNG:
		level := png.DefaultCompression
		if c.pngOptimize {
			level = png.BestCompression
		}
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(level))
	case imgutil.KindGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	case imgutil.KindBMP:
		err = imaging.Encode(&buf, img, imaging.BMP)
	case imgutil.KindTIFF:
		err = imaging.Encode(&buf, img, imaging.TIFF)
	case imgutil.KindWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(c.quality)})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
	if err != nil {
		return nil, wrapKind(ErrEncode, err, "encode %s", kind)
	}
	return buf.Bytes(), nil
}

// Save encodes img into path and returns the number of bytes written.
func (c *Compressor) Save(img image.Image, path string, kind imgutil.Kind) (int64, error) {
	data, err := c.Encode(img, kind)
	if err != nil {
		return 0, err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data next to path and renames it into place, so a
// failed write never leaves a truncated destination behind.
func writeFileAtomic(path string, data []byte) (int64, error) {
	destDir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(destDir, ".pixie-*.tmp")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return 0, err
	}
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return 0, err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return 0, err
	}
	if err := tmpFile.Close(); err != nil {
		return 0, err
	}

	if err := replaceFile(tmpFile.Name(), path); err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

// CalculateSavings returns how much smaller after is than before, in percent,
// clamped to [0, 100].
func CalculateSavings(before, after int64) float64 {
	if before <= 0 || after >= before {
		return 0
	}
	if after < 0 {
		after = 0
	}
	return float64(before-after) / float64(before) * 100
}
