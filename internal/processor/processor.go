package processor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"pixie/pkg/imgutil"
)

// ImageProcessor runs the single-image pipeline: load, optional metadata
// strip, optional resize, encode and save.
type ImageProcessor struct {
	cfg        Config
	logger     *zap.Logger
	loader     *Loader
	resizer    *Resizer
	compressor *Compressor
}

// NewImageProcessor builds a pipeline for cfg. cfg is expected to have passed
// Validate.
func NewImageProcessor(cfg Config, logger *zap.Logger) *ImageProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageProcessor{
		cfg:        cfg,
		logger:     logger,
		loader:     NewLoader(logger),
		resizer:    NewResizer(cfg.Algorithm, cfg.KeepAspect),
		compressor: NewCompressor(cfg.Quality, cfg.Progressive, cfg.PNGOptimize),
	}
}

// Process transforms src into dst. dst is only created once encoding has
// succeeded.
func (p *ImageProcessor) Process(src, dst string) (ProcessingStats, error) {
	var stats ProcessingStats
	log := p.logger.With(zap.String("src", src), zap.String("dst", dst))

	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, fmt.Errorf("%w: %s", ErrNotFound, src)
		}
		return stats, err
	}
	if !info.Mode().IsRegular() {
		return stats, invalidParameter("%s is not a regular file", src)
	}
	if p.cfg.MaxFileSize > 0 && info.Size() > p.cfg.MaxFileSize {
		return stats, invalidParameter("%s is %s, above the %s limit",
			src, imgutil.FormatSize(info.Size()), imgutil.FormatSize(p.cfg.MaxFileSize))
	}
	stats.InputSize = info.Size()

	data, err := readSource(src)
	if err != nil {
		return stats, err
	}
	sourceKind := imgutil.SniffBytes(data)
	outKind := ResolveFormat(p.cfg.Format, sourceKind, dst)

	var carried []jpegSegment
	carryMetadata := !p.cfg.StripMetadata && sourceKind == imgutil.KindJPEG && outKind == imgutil.KindJPEG
	if carryMetadata {
		if carried, err = jpegMetadataSegments(data); err != nil {
			log.Debug("cannot collect JPEG metadata, output will carry none", zap.Error(err))
			carried = nil
		}
	}
	orientation := 1
	if len(carried) == 0 {
		orientation = Orientation(data)
	}

	if p.cfg.StripMetadata {
		stripped, err := StripMetadata(data)
		if err != nil {
			return stats, err
		}
		log.Debug("stripped metadata", zap.Int("removedBytes", len(data)-len(stripped)))
		data = stripped
	}

	raster, err := p.loader.LoadFromBytes(data)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", src, err)
	}
	img := applyOrientation(raster.Image, orientation)
	bounds := img.Bounds()
	stats.WidthBefore, stats.HeightBefore = bounds.Dx(), bounds.Dy()

	if p.cfg.wantsResize() {
		img, err = p.resizer.Resize(img, p.cfg.resizeMode())
		if err != nil {
			return stats, fmt.Errorf("%s: %w", src, err)
		}
	}
	bounds = img.Bounds()
	stats.WidthAfter, stats.HeightAfter = bounds.Dx(), bounds.Dy()

	encoded, err := p.compressor.Encode(img, outKind)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", src, err)
	}
	if len(carried) > 0 {
		if encoded, err = injectJPEGSegments(encoded, carried); err != nil {
			return stats, wrapKind(ErrEncode, err, "carry metadata into %s", dst)
		}
	}

	written, err := writeFileAtomic(dst, encoded)
	if err != nil {
		return stats, fmt.Errorf("write %s: %w", dst, err)
	}
	stats.OutputSize = written
	stats.Format = outKind

	log.Debug("processed image",
		zap.Int64("before", stats.InputSize),
		zap.Int64("after", stats.OutputSize),
		zap.Int("widthBefore", stats.WidthBefore),
		zap.Int("heightBefore", stats.HeightBefore),
		zap.Int("widthAfter", stats.WidthAfter),
		zap.Int("heightAfter", stats.HeightAfter),
		zap.Stringer("format", outKind),
	)
	return stats, nil
}

// Info reports the basic facts of an image file without writing anything.
func (p *ImageProcessor) Info(path string) (ImageInfo, error) {
	info := ImageInfo{Path: path}

	stat, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return info, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return info, err
	}
	info.FileSize = stat.Size()

	raster, err := p.loader.Load(path)
	if err != nil {
		return info, err
	}
	info.Width = raster.Width
	info.Height = raster.Height
	info.Format = raster.Format
	info.ColorModel = raster.ColorModel
	info.Animated = raster.Animated

	block, err := ReadMetadata(path)
	if err != nil {
		p.logger.Warn("cannot read metadata", zap.String("path", path), zap.Error(err))
	}
	info.HasExif = block.HasExif()
	return info, nil
}
