package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// scanPNGText collects the tEXt, zTXt and iTXt keywords of a PNG plus the
// tIME chunk. Only tEXt values are uncompressed and therefore reported.
func scanPNGText(r io.Reader) ([]MetadataTag, error) {
	br := bufio.NewReader(r)
	if err := readPNGSignature(br); err != nil {
		return nil, err
	}

	var tags []MetadataTag
	for {
		h, err := nextPNGChunk(br)
		if errors.Is(err, io.EOF) {
			return tags, nil
		}
		if err != nil {
			return nil, err
		}

		switch h.name {
		case "tEXt", "zTXt", "iTXt":
			data, err := readPNGChunkData(br, h)
			if err != nil {
				return nil, err
			}
			if tag, ok := pngTextTag(h.name, data); ok {
				tags = append(tags, tag)
			}
		case "tIME":
			data, err := readPNGChunkData(br, h)
			if err != nil {
				return nil, err
			}
			tags = append(tags, MetadataTag{IfdPath: "PNG", Name: "ModifyTime", Value: pngTime(data)})
		default:
			if _, err := io.CopyN(io.Discard, br, int64(h.length)+4); err != nil {
				return nil, fmt.Errorf("PNG %s chunk: %w", h.name, err)
			}
		}

		if h.name == "IEND" {
			return tags, nil
		}
	}
}

func pngTextTag(chunkName string, data []byte) (MetadataTag, bool) {
	idx := bytes.IndexByte(data, 0)
	if idx <= 0 {
		return MetadataTag{}, false
	}
	tag := MetadataTag{IfdPath: "PNG/" + chunkName, Name: string(data[:idx])}
	if chunkName == "tEXt" {
		tag.Value = string(data[idx+1:])
	}
	return tag, true
}

func pngTime(data []byte) string {
	if len(data) != 7 {
		return ""
	}
	year := binary.BigEndian.Uint16(data[:2])
	return fmt.Sprintf("%04d:%02d:%02d %02d:%02d:%02d", year, data[2], data[3], data[4], data[5], data[6])
}
