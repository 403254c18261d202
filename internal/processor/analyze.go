package processor

import (
	"bytes"
	"errors"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

const exifOrientationTag = 0x0112

// readExifTags returns the flattened EXIF tags found anywhere in data, or nil
// when there are none.
func readExifTags(data []byte) ([]MetadataTag, error) {
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		if errorsIsNoExif(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]MetadataTag, 0, len(tags))
	for _, tag := range tags {
		value := tag.Formatted
		if value == "" {
			value = tag.FormattedFirst
		}
		out = append(out, MetadataTag{
			IfdPath: tag.IfdPath,
			ID:      tag.TagId,
			Name:    tag.TagName,
			Value:   value,
			raw:     tag.Value,
		})
	}
	return out, nil
}

// orientationFromTags finds the IFD0 orientation, defaulting to 1.
func orientationFromTags(tags []MetadataTag) int {
	for _, tag := range tags {
		if tag.ID != exifOrientationTag || tag.IfdPath != "IFD" {
			continue
		}
		var v int
		switch raw := tag.raw.(type) {
		case []uint16:
			if len(raw) > 0 {
				v = int(raw[0])
			}
		case []uint32:
			if len(raw) > 0 {
				v = int(raw[0])
			}
		}
		if v >= 1 && v <= 8 {
			return v
		}
	}
	return 1
}

func errorsIsNoExif(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exif.ErrNoExif) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
