package pgn

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic opens every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// NewReader returns r as plain PGN text, transparently decompressing a
// zstd stream. Close releases the decoder; it does not close r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading PGN: %w", err)
	}
	if !bytes.Equal(head, zstdMagic) {
		return io.NopCloser(br), nil
	}

	decoder, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	return decoder.IOReadCloser(), nil
}
