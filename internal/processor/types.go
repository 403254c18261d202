package processor

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"pixie/pkg/imgutil"
)

// Algorithm selects the resampling filter.
type Algorithm int

const (
	Nearest Algorithm = iota
	Bilinear
	Bicubic
	Lanczos3
)

var algorithmNames = map[Algorithm]string{
	Nearest:  "nearest",
	Bilinear: "bilinear",
	Bicubic:  "bicubic",
	Lanczos3: "lanczos3",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Validate implements validation.Validatable.
func (a Algorithm) Validate() error {
	if _, ok := algorithmNames[a]; !ok {
		return errors.New("must be one of nearest, bilinear, bicubic, lanczos3")
	}
	return nil
}

// ParseAlgorithm parses a case-insensitive algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a, name := range algorithmNames {
		if strings.EqualFold(s, name) {
			return a, nil
		}
	}
	return 0, invalidParameter("unknown resize algorithm %q", s)
}

// Format is the requested output container. FormatNone means the caller did
// not ask for one and the destination extension decides.
type Format int

const (
	FormatNone Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
	FormatSameAsInput
)

var formatNames = map[Format]string{
	FormatNone:        "",
	FormatJPEG:        "jpeg",
	FormatPNG:         "png",
	FormatWebP:        "webp",
	FormatSameAsInput: "same",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Validate implements validation.Validatable.
func (f Format) Validate() error {
	if _, ok := formatNames[f]; !ok {
		return errors.New("must be one of jpeg, png, webp, same")
	}
	return nil
}

// Kind returns the container an explicit format maps to, or KindUnknown for
// FormatNone and FormatSameAsInput.
func (f Format) Kind() imgutil.Kind {
	switch f {
	case FormatJPEG:
		return imgutil.KindJPEG
	case FormatPNG:
		return imgutil.KindPNG
	case FormatWebP:
		return imgutil.KindWebP
	default:
		return imgutil.KindUnknown
	}
}

// ParseFormat parses a CLI format name. The empty string yields FormatNone.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "":
		return FormatNone, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	case "same", "same-as-input":
		return FormatSameAsInput, nil
	}
	return FormatNone, invalidParameter("unknown output format %q", s)
}

// Raster is a decoded image plus the facts recorded while loading it.
type Raster struct {
	Image      image.Image
	Width      int
	Height     int
	Format     imgutil.Kind
	ColorModel string
	Animated   bool
}

// ProcessingStats describes one successful pipeline run.
type ProcessingStats struct {
	InputSize    int64
	OutputSize   int64
	WidthBefore  int
	HeightBefore int
	WidthAfter   int
	HeightAfter  int
	Format       imgutil.Kind
}

// Savings returns the size reduction in percent, never negative.
func (s ProcessingStats) Savings() float64 {
	return CalculateSavings(s.InputSize, s.OutputSize)
}

// FileError records a per-file failure inside a batch run.
type FileError struct {
	Context string
	Err     error
}

func (e FileError) Error() string {
	return e.Context + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// BatchStats aggregates the outcome of one batch run.
type BatchStats struct {
	Processed       int
	TotalSizeBefore int64
	TotalSizeAfter  int64
	Errors          []FileError
}

// Savings returns the aggregate size reduction in percent, never negative.
func (s BatchStats) Savings() float64 {
	return CalculateSavings(s.TotalSizeBefore, s.TotalSizeAfter)
}

func (s *BatchStats) merge(res Result) {
	if res.Err != nil {
		s.Errors = append(s.Errors, FileError{Context: res.Task.Source, Err: res.Err})
		return
	}
	s.Processed++
	s.TotalSizeBefore += res.Stats.InputSize
	s.TotalSizeAfter += res.Stats.OutputSize
}

// FileTask is one unit of batch work.
type FileTask struct {
	Source      string
	Destination string
}

// Result is the value a worker hands back for one FileTask.
type Result struct {
	Task  FileTask
	Stats ProcessingStats
	Err   error
}

// ProgressUpdate carries counter deltas from the batch collector.
type ProgressUpdate struct {
	TotalDelta       int
	ProcessedDelta   int
	ErrorDelta       int
	BytesBeforeDelta int64
	BytesAfterDelta  int64
}

// ImageInfo summarises an image file without transforming it.
type ImageInfo struct {
	Path       string
	FileSize   int64
	Width      int
	Height     int
	Format     imgutil.Kind
	ColorModel string
	Animated   bool
	HasExif    bool
}

// AspectRatio returns width/height, or 0 for a degenerate image.
func (i ImageInfo) AspectRatio() float64 {
	if i.Height == 0 {
		return 0
	}
	return float64(i.Width) / float64(i.Height)
}
