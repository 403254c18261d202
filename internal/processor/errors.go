package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter bad configuration, geometry or paths.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotFound the source file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrDecode the source bytes are not a supported raster.
	ErrDecode = errors.New("decode error")
	// ErrEncode the raster could not be serialized.
	ErrEncode = errors.New("encode error")
	// ErrMetadataRead a metadata container is present but corrupt.
	ErrMetadataRead = errors.New("metadata read error")
	// ErrUnsupportedFormat no codec exists for the requested container.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrProcessing catch-all for pipeline stage failures.
	ErrProcessing = errors.New("processing error")
)

func invalidParameter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func wrapKind(kind error, err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", kind, fmt.Sprintf(format, args...), err)
}
