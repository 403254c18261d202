package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// pngChunkHeader is the length and type prefix of one PNG chunk. The data and
// CRC that follow are still unread.
type pngChunkHeader struct {
	raw    [8]byte
	length uint32
	name   string
}

func readPNGSignature(br *bufio.Reader) error {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, pngSignature) {
		return errors.New("invalid PNG signature")
	}
	return nil
}

// nextPNGChunk returns io.EOF only when the stream ends on a chunk boundary.
func nextPNGChunk(br *bufio.Reader) (pngChunkHeader, error) {
	var h pngChunkHeader
	if _, err := io.ReadFull(br, h.raw[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return h, fmt.Errorf("truncated PNG chunk header: %w", err)
		}
		return h, err
	}
	h.length = binary.BigEndian.Uint32(h.raw[:4])
	h.name = string(h.raw[4:])
	return h, nil
}

// readPNGChunkData reads the chunk body and skips its CRC. The buffer only
// grows as bytes actually arrive, so a forged length cannot force a huge
// allocation.
func readPNGChunkData(br *bufio.Reader, h pngChunkHeader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, br, int64(h.length))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("PNG %s chunk declares %d bytes, only %d present: %w",
				h.name, h.length, n, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	if _, err := br.Discard(4); err != nil {
		return nil, fmt.Errorf("PNG %s chunk CRC: %w", h.name, err)
	}
	return buf.Bytes(), nil
}

// stripPNG runs on the encoded source before it is decoded, so the copy of
// the pixels that reaches the encoder never carried text, EXIF, timestamp or
// ICC chunks. Every other chunk is copied through byte for byte.
func stripPNG(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	if err := readPNGSignature(br); err != nil {
		return err
	}
	if _, err := bw.Write(pngSignature); err != nil {
		return err
	}

	for {
		h, err := nextPNGChunk(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		body := int64(h.length) + 4
		if isPNGMetadataChunk(h.name) {
			if _, err := io.CopyN(io.Discard, br, body); err != nil {
				return fmt.Errorf("PNG %s chunk: %w", h.name, err)
			}
			continue
		}
		if _, err := bw.Write(h.raw[:]); err != nil {
			return err
		}
		if _, err := io.CopyN(bw, br, body); err != nil {
			return fmt.Errorf("PNG %s chunk: %w", h.name, err)
		}
		if h.name == "IEND" {
			break
		}
	}

	return bw.Flush()
}

func isPNGMetadataChunk(name string) bool {
	switch name {
	case "tEXt", "zTXt", "iTXt", "eXIf", "tIME", "iCCP":
		return true
	default:
		return false
	}
}
