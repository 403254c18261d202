package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"
	"github.com/sapphi-red/midec"
	_ "github.com/sapphi-red/midec/gif"  // animation detection for GIF
	_ "github.com/sapphi-red/midec/png"  // animation detection for APNG
	_ "github.com/sapphi-red/midec/webp" // animation detection for WebP
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // image.Decode support for WebP

	"pixie/pkg/imgutil"
)

// Loader decodes byte sources into Rasters.
type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// Load reads and decodes the file at path.
func (l *Loader) Load(path string) (*Raster, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	raster, err := l.LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.logger.Debug("loaded image",
		zap.String("path", path),
		zap.Int("width", raster.Width),
		zap.Int("height", raster.Height),
		zap.Stringer("format", raster.Format),
		zap.String("color", raster.ColorModel),
	)
	return raster, nil
}

// LoadFromBytes decodes an in-memory image. EXIF orientation is not applied
// here; see Orientation.
func (l *Loader) LoadFromBytes(data []byte) (raster *Raster, err error) {
	defer func() {
		if r := recover(); r != nil {
			raster = nil
			err = fmt.Errorf("%w: decoder panic: %v", ErrDecode, r)
		}
	}()

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, wrapKind(ErrDecode, err, "cannot decode image")
	}

	kind := imgutil.SniffBytes(data)
	bounds := img.Bounds()
	raster = &Raster{
		Image:      img,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     kind,
		ColorModel: colorModelName(img),
		Animated:   isAnimated(data, kind),
	}
	if raster.Animated {
		l.logger.Warn("animated image, only the first frame is processed", zap.Stringer("format", kind))
	}
	return raster, nil
}

func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

func isAnimated(data []byte, kind imgutil.Kind) bool {
	switch kind {
	case imgutil.KindGIF, imgutil.KindPNG, imgutil.KindWebP:
	default:
		return false
	}
	animated, err := midec.IsAnimated(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return animated
}

func colorModelName(img image.Image) string {
	switch img.(type) {
	case *image.YCbCr:
		return "ycbcr"
	case *image.RGBA:
		return "rgba8"
	case *image.NRGBA:
		return "nrgba8"
	case *image.RGBA64:
		return "rgba16"
	case *image.NRGBA64:
		return "nrgba16"
	case *image.Gray:
		return "gray8"
	case *image.Gray16:
		return "gray16"
	case *image.Paletted:
		return "paletted"
	case *image.CMYK:
		return "cmyk"
	case *image.NYCbCrA:
		return "nycbcra"
	default:
		return "unknown"
	}
}
