package processor

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"pixie/pkg/imgutil"
)

// MetadataTag is one flattened metadata entry. EXIF tags carry their IFD
// path ("IFD", "IFD/Exif", "IFD/GPSInfo"); PNG text chunks use "PNG/<chunk>".
type MetadataTag struct {
	IfdPath string
	ID      uint16
	Name    string
	Value   string

	raw any
}

// MetadataBlock is everything ReadMetadata found in one source.
type MetadataBlock struct {
	Tags []MetadataTag
}

// Has reports whether a tag with the given name is present.
func (b *MetadataBlock) Has(name string) bool {
	for _, tag := range b.Tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// HasExif reports whether any tag came from an EXIF IFD.
func (b *MetadataBlock) HasExif() bool {
	if b == nil {
		return false
	}
	for _, tag := range b.Tags {
		if strings.HasPrefix(tag.IfdPath, "IFD") {
			return true
		}
	}
	return false
}

// Orientation returns the EXIF orientation (1-8), 1 when absent.
func (b *MetadataBlock) Orientation() int {
	return orientationFromTags(b.Tags)
}

// ReadMetadata reads the metadata of the file at path. It returns nil and no
// error when the file carries none.
func ReadMetadata(path string) (*MetadataBlock, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}
	block, err := ReadMetadataBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return block, nil
}

// ReadMetadataBytes is ReadMetadata for in-memory sources.
func ReadMetadataBytes(data []byte) (block *MetadataBlock, err error) {
	defer func() {
		if r := recover(); r != nil {
			block = nil
			err = fmt.Errorf("%w: %v", ErrMetadataRead, r)
		}
	}()

	tags, err := readExifTags(data)
	if err != nil {
		return nil, wrapKind(ErrMetadataRead, err, "exif")
	}

	if imgutil.SniffBytes(data) == imgutil.KindPNG {
		pngTags, err := scanPNGText(bytes.NewReader(data))
		if err != nil {
			return nil, wrapKind(ErrMetadataRead, err, "png chunks")
		}
		tags = append(tags, pngTags...)
	}

	if len(tags) == 0 {
		return nil, nil
	}
	return &MetadataBlock{Tags: tags}, nil
}

// Orientation returns the EXIF orientation of an encoded image, 1 when it
// has none or it cannot be read.
func Orientation(data []byte) int {
	block, err := ReadMetadataBytes(data)
	if err != nil || block == nil {
		return 1
	}
	return block.Orientation()
}

// StripMetadata removes metadata from an encoded image before it is decoded.
// JPEG and PNG are rewritten segment by segment. Other containers are
// returned unchanged; their metadata never survives re-encoding because the
// encoders write none.
func StripMetadata(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data))

	switch imgutil.SniffBytes(data) {
	case imgutil.KindJPEG:
		if _, err := stripJPEG(bytes.NewReader(data), &out); err != nil {
			return nil, wrapKind(ErrProcessing, err, "strip JPEG metadata")
		}
	case imgutil.KindPNG:
		if err := stripPNG(bytes.NewReader(data), &out); err != nil {
			return nil, wrapKind(ErrProcessing, err, "strip PNG metadata")
		}
	default:
		return data, nil
	}
	return out.Bytes(), nil
}

// jpegMetadataSegments returns the metadata segments of a JPEG so they can be
// carried over to a re-encoded copy.
func jpegMetadataSegments(data []byte) ([]jpegSegment, error) {
	return stripJPEG(bytes.NewReader(data), io.Discard)
}

// applyOrientation bakes an EXIF orientation into the pixels.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
