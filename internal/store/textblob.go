package store

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"readalong/internal/services"
)

// CompressText deflates segment text for the text_blob column.
func CompressText(text string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := io.WriteString(zw, text); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("compress text: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("flush text: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressText inflates a text_blob value.
func DecompressText(blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return "", services.Wrap(services.ErrCorrupt, "store", "decompress text", "", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return "", services.Wrap(services.ErrCorrupt, "store", "decompress text", "", err)
	}
	return string(data), nil
}
