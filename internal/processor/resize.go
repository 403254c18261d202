package processor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

type resizeKind int

const (
	resizeAbsolute resizeKind = iota
	resizeScale
)

// ResizeMode is either an absolute target box or a scale factor.
type ResizeMode struct {
	kind   resizeKind
	Width  int
	Height int
	Factor float64
}

// AbsoluteMode targets a width and height. A zero dimension is derived from
// the source aspect ratio.
func AbsoluteMode(width, height int) ResizeMode {
	return ResizeMode{kind: resizeAbsolute, Width: width, Height: height}
}

// ScaleMode multiplies both source dimensions by factor.
func ScaleMode(factor float64) ResizeMode {
	return ResizeMode{kind: resizeScale, Factor: factor}
}

func (m ResizeMode) IsScale() bool {
	return m.kind == resizeScale
}

// ComputeTargetDimensions maps a source size and a resize intent to the
// output size.
func ComputeTargetDimensions(srcW, srcH int, mode ResizeMode, keepAspect bool) (int, int, error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, invalidParameter("source has no pixels (%dx%d)", srcW, srcH)
	}

	var w, h int
	switch {
	case mode.IsScale():
		if mode.Factor <= 0 || math.IsNaN(mode.Factor) || math.IsInf(mode.Factor, 0) {
			return 0, 0, invalidParameter("scale factor must be positive, got %v", mode.Factor)
		}
		w = roundDim(float64(srcW) * mode.Factor)
		h = roundDim(float64(srcH) * mode.Factor)
	case mode.Width < 0 || mode.Height < 0:
		return 0, 0, invalidParameter("negative target %dx%d", mode.Width, mode.Height)
	case mode.Width == 0 && mode.Height == 0:
		return 0, 0, invalidParameter("target width and height are both zero")
	case mode.Height == 0:
		w = mode.Width
		h = roundDim(float64(srcH) * float64(mode.Width) / float64(srcW))
	case mode.Width == 0:
		w = roundDim(float64(srcW) * float64(mode.Height) / float64(srcH))
		h = mode.Height
	case keepAspect:
		factor := math.Min(float64(mode.Width)/float64(srcW), float64(mode.Height)/float64(srcH))
		w = roundDim(float64(srcW) * factor)
		h = roundDim(float64(srcH) * factor)
	default:
		w, h = mode.Width, mode.Height
	}

	if w <= 0 || h <= 0 {
		return 0, 0, invalidParameter("target %dx%d collapses to zero pixels", w, h)
	}
	if w > MaxDimension || h > MaxDimension {
		return 0, 0, invalidParameter("target %dx%d exceeds %d pixels", w, h, MaxDimension)
	}
	return w, h, nil
}

func roundDim(v float64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(v))
}

// Resizer resamples images with a fixed filter.
type Resizer struct {
	algorithm  Algorithm
	keepAspect bool
}

func NewResizer(algorithm Algorithm, keepAspect bool) *Resizer {
	return &Resizer{algorithm: algorithm, keepAspect: keepAspect}
}

// Resize returns img resampled to the size mode asks for, or img itself when
// that size equals the current one.
func (r *Resizer) Resize(img image.Image, mode ResizeMode) (image.Image, error) {
	bounds := img.Bounds()
	w, h, err := ComputeTargetDimensions(bounds.Dx(), bounds.Dy(), mode, r.keepAspect)
	if err != nil {
		return nil, err
	}
	if w == bounds.Dx() && h == bounds.Dy() {
		return img, nil
	}
	return imaging.Resize(img, w, h, r.algorithm.filter()), nil
}

func (a Algorithm) filter() imaging.ResampleFilter {
	switch a {
	case Nearest:
		return imaging.NearestNeighbor
	case Bilinear:
		return imaging.Linear
	case Bicubic:
		return imaging.CatmullRom
	default:
		return imaging.Lanczos
	}
}
