package processor

import (
	"fmt"

	vd "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxDimension is the largest width or height accepted anywhere in the
// pipeline.
const MaxDimension = 100_000

// Config describes one transformation. It is validated once and then only
// read, so a single value can be shared by every batch worker.
type Config struct {
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Scale         float64   `json:"scale"`
	Quality       int       `json:"quality"`
	KeepAspect    bool      `json:"keepAspect"`
	StripMetadata bool      `json:"stripMetadata"`
	Algorithm     Algorithm `json:"algorithm"`
	Format        Format    `json:"format"`
	// MaxFileSize rejects larger inputs, in bytes. 0 disables the check.
	MaxFileSize int64 `json:"maxFileSize"`
	// RequireResize is set by command paths whose whole purpose is resizing.
	RequireResize bool `json:"requireResize"`
	Progressive   bool `json:"progressive"`
	PNGOptimize   bool `json:"pngOptimize"`
}

// DefaultConfig returns the defaults shared by every command.
func DefaultConfig() Config {
	return Config{
		Quality:     85,
		KeepAspect:  true,
		Algorithm:   Lanczos3,
		PNGOptimize: true,
	}
}

// Validate implements validation.Validatable.
//
// Quality outside [1,100] is rejected rather than clamped.
func (c Config) Validate() error {
	noTarget := c.Width == 0 && c.Height == 0 && c.Scale == 0
	err := vd.ValidateStruct(&c,
		vd.Field(&c.Width,
			vd.Min(0), vd.Max(MaxDimension),
			vd.When(c.RequireResize && noTarget, vd.Required.Error("width, height or scale must be set")),
		),
		vd.Field(&c.Height, vd.Min(0), vd.Max(MaxDimension)),
		vd.Field(&c.Scale, vd.Min(0.0)),
		vd.Field(&c.Quality, vd.Required.Error("must be between 1 and 100"), vd.Min(1), vd.Max(100)),
		vd.Field(&c.Algorithm),
		vd.Field(&c.Format),
		vd.Field(&c.MaxFileSize, vd.Min(int64(0))),
		vd.Field(&c.Progressive, vd.Empty.Error("progressive JPEG encoding is not supported")),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return nil
}

// wantsResize reports whether the pipeline should run the resizer at all.
func (c Config) wantsResize() bool {
	return c.Width > 0 || c.Height > 0 || c.Scale > 0
}

func (c Config) resizeMode() ResizeMode {
	if c.Scale > 0 {
		return ScaleMode(c.Scale)
	}
	return AbsoluteMode(c.Width, c.Height)
}
