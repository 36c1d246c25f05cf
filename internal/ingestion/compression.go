package ingestion

import (
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// Compression names the codec a log file is stored with.
type Compression string

const (
	CompressionAuto  Compression = "auto"
	CompressionNone  Compression = "none"
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionZstd  Compression = "zstd"
)

// ParseCompression parses a compression name. The empty string means auto.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CompressionAuto, nil
	case CompressionAuto, CompressionNone, CompressionGzip, CompressionBzip2, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression %q", s)
	}
}

// Detect resolves auto to a concrete codec from the file extension.
func (c Compression) Detect(path string) Compression {
	if c != CompressionAuto && c != "" {
		return c
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".bz2", ".bzip2":
		return CompressionBzip2
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// OpenLog opens path and wraps it in the decompressor for c.
func OpenLog(path string, c Compression) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}

	r, err := decompressor(f, c.Detect(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return r, nil
}

func decompressor(f *os.File, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionGzip:
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []func() error{zr.Close, f.Close}}, nil
	case CompressionBzip2:
		return &stackedReader{Reader: bzip2.NewReader(f), closers: []func() error{f.Close}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		release := func() error { zr.Close(); return nil }
		return &stackedReader{Reader: zr, closers: []func() error{release, f.Close}}, nil
	default:
		return f, nil
	}
}

// stackedReader closes a decompressor and the file beneath it.
type stackedReader struct {
	io.Reader
	closers []func() error
}

func (r *stackedReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
