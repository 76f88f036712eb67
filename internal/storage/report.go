package storage

import (
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/zstd"
)

const CompressedSuffix = ".zst"

// WriteReport stores data under name, zstd-compressed when compress is set,
// and returns the name actually written.
func WriteReport(s Storage, name string, data []byte, compress bool) (string, error) {
	if compress {
		name += CompressedSuffix
	}
	if dir := path.Dir(name); dir != "." {
		if err := s.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	file, err := s.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}

	var w io.Writer = file
	var encoder *zstd.Encoder
	if compress {
		encoder, err = zstd.NewWriter(file)
		if err != nil {
			_ = file.Close()
			return "", fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = encoder
	}

	if _, err := w.Write(data); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if encoder != nil {
		if err := encoder.Close(); err != nil {
			_ = file.Close()
			return "", fmt.Errorf("failed to flush zstd writer: %w", err)
		}
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close report: %w", err)
	}
	return name, nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(s Storage, name string) ([]byte, error) {
	file, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if path.Ext(name) == CompressedSuffix {
		decoder, err := zstd.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		r = decoder
	}
	return io.ReadAll(r)
}
