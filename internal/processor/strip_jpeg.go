package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegXmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegPhotoshop  = []byte("Photoshop 3.0\x00")
	jpegICCHeader  = []byte("ICC_PROFILE\x00")
)

const (
	markerSOI   = 0xd8
	markerEOI   = 0xd9
	markerSOS   = 0xda
	markerAPP1  = 0xe1
	markerAPP2  = 0xe2
	markerAPP13 = 0xed
)

// jpegSegment is a marker segment without its length prefix.
type jpegSegment struct {
	marker  byte
	payload []byte
}

// stripJPEG copies r to w without the EXIF, XMP, Photoshop/IPTC and ICC
// segments and returns the segments it dropped, in file order.
func stripJPEG(r io.Reader, w io.Writer) ([]jpegSegment, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	var dropped []jpegSegment

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return nil, err
	}
	if soi[0] != 0xff || soi[1] != markerSOI {
		return nil, fmt.Errorf("invalid JPEG SOI")
	}
	if _, err := bw.Write(soi); err != nil {
		return nil, err
	}

	for {
		markerPrefix, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		for markerPrefix != 0xff {
			markerPrefix, err = br.ReadByte()
			if err != nil {
				return nil, err
			}
		}

		marker, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		for marker == 0xff {
			marker, err = br.ReadByte()
			if err != nil {
				return nil, err
			}
		}

		if marker == markerEOI {
			if _, err := bw.Write([]byte{0xff, markerEOI}); err != nil {
				return nil, err
			}
			break
		}

		if marker == markerSOS {
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return nil, err
			}
			if _, err := io.Copy(bw, br); err != nil {
				return nil, err
			}
			break
		}

		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return nil, err
			}
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return nil, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return nil, fmt.Errorf("invalid JPEG segment length")
		}
		payloadLen := segLen - 2
		if marker == markerAPP1 || marker == markerAPP2 || marker == markerAPP13 {
			payload := make([]byte, payloadLen)
			if _, err := io.ReadFull(br, payload); err != nil {
				return nil, err
			}

			if isJPEGMetadataSegment(marker, payload) {
				dropped = append(dropped, jpegSegment{marker: marker, payload: payload})
				continue
			}

			if err := writeJPEGSegment(bw, marker, payload); err != nil {
				return nil, err
			}
			continue
		}

		if _, err := bw.Write([]byte{0xff, marker}); err != nil {
			return nil, err
		}
		if _, err := bw.Write(lenBuf); err != nil {
			return nil, err
		}
		if _, err := io.CopyN(bw, br, int64(payloadLen)); err != nil {
			return nil, err
		}
	}

	return dropped, bw.Flush()
}

func isJPEGMetadataSegment(marker byte, payload []byte) bool {
	switch marker {
	case markerAPP1:
		return bytes.HasPrefix(payload, jpegExifHeader) || bytes.HasPrefix(payload, jpegXmpHeader)
	case markerAPP13:
		return bytes.HasPrefix(payload, jpegPhotoshop)
	case markerAPP2:
		return bytes.HasPrefix(payload, jpegICCHeader)
	}
	return false
}

func writeJPEGSegment(w io.Writer, marker byte, payload []byte) error {
	if len(payload)+2 > 0xffff {
		return fmt.Errorf("JPEG segment too large: %d bytes", len(payload))
	}
	header := []byte{0xff, marker, 0, 0}
	binary.BigEndian.PutUint16(header[2:], uint16(len(payload)+2))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// injectJPEGSegments inserts segments right after the SOI marker of an
// encoded JPEG.
func injectJPEGSegments(encoded []byte, segments []jpegSegment) ([]byte, error) {
	if len(segments) == 0 {
		return encoded, nil
	}
	if len(encoded) < 2 || encoded[0] != 0xff || encoded[1] != markerSOI {
		return nil, fmt.Errorf("invalid JPEG SOI")
	}

	var buf bytes.Buffer
	buf.Grow(len(encoded))
	buf.Write(encoded[:2])
	for _, seg := range segments {
		if err := writeJPEGSegment(&buf, seg.marker, seg.payload); err != nil {
			return nil, err
		}
	}
	buf.Write(encoded[2:])
	return buf.Bytes(), nil
}
