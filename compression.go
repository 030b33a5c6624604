package sheetsql

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// CompressionType represents the compression applied to a workbook or an exported file
type CompressionType int

const (
	// CompressionNone represents no compression
	CompressionNone CompressionType = iota
	// CompressionGZ represents gzip compression
	CompressionGZ
	// CompressionBZ2 represents bzip2 compression (read only)
	CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD
)

// codec opens readers and writers for one compression format
type codec struct {
	name      string
	extension string
	aliases   []string
	newReader func(io.Reader) (io.ReadCloser, error)
	// newWriter is nil when the format can only be read
	newWriter func(io.Writer) (io.WriteCloser, error)
}

// nopWriteCloser passes writes through untouched
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

var codecs = map[CompressionType]codec{
	CompressionNone: {
		name: "none",
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return nopWriteCloser{w}, nil
		},
	},
	CompressionGZ: {
		name:      "gz",
		extension: ".gz",
		aliases:   []string{"gzip"},
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
	},
	CompressionBZ2: {
		name:      "bz2",
		extension: ".bz2",
		aliases:   []string{"bzip2"},
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(bzip2.NewReader(r)), nil
		},
	},
	CompressionXZ: {
		name:      "xz",
		extension: ".xz",
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			xr, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(xr), nil
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(w)
		},
	},
	CompressionZSTD: {
		name:      "zstd",
		extension: ".zst",
		aliases:   []string{"zst"},
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			decoder, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return decoder.IOReadCloser(), nil
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
	},
}

// compressedTypes lists every real compression, in detection order
var compressedTypes = []CompressionType{CompressionGZ, CompressionBZ2, CompressionXZ, CompressionZSTD}

// String returns the string representation of CompressionType
func (c CompressionType) String() string {
	if k, ok := codecs[c]; ok {
		return k.name
	}
	return codecs[CompressionNone].name
}

// Extension returns the file extension for the compression type
func (c CompressionType) Extension() string {
	return codecs[c].extension
}

// ParseCompressionType parses the names accepted on the command line.
func ParseCompressionType(name string) (CompressionType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return CompressionNone, nil
	}
	for _, c := range append([]CompressionType{CompressionNone}, compressedTypes...) {
		k := codecs[c]
		if name == k.name || name == strings.TrimPrefix(k.extension, ".") {
			return c, nil
		}
		for _, alias := range k.aliases {
			if name == alias {
				return c, nil
			}
		}
	}
	return CompressionNone, fmt.Errorf("unknown compression type: %s", name)
}

// detectCompressionType detects the compression type from a file path
func detectCompressionType(path string) CompressionType {
	path = strings.ToLower(path)
	for _, c := range compressedTypes {
		if strings.HasSuffix(path, codecs[c].extension) {
			return c
		}
	}
	return CompressionNone
}

// trimCompressionExtension removes the compression extension from a file path if present
func trimCompressionExtension(path string) string {
	ext := detectCompressionType(path).Extension()
	return path[:len(path)-len(ext)]
}

// newDecompressReader wraps reader with a decompression reader for the compression type
func newDecompressReader(c CompressionType, reader io.Reader) (io.Reader, func() error, error) {
	k, ok := codecs[c]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", c)
	}
	rc, err := k.newReader(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s reader: %w", k.name, err)
	}
	return rc, rc.Close, nil
}

// newCompressWriter wraps writer with a compression writer for the compression type.
// The returned flush must run before the underlying writer is closed.
func newCompressWriter(c CompressionType, writer io.Writer) (io.Writer, func() error, error) {
	k, ok := codecs[c]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported compression type for writing: %v", c)
	}
	if k.newWriter == nil {
		return nil, nil, fmt.Errorf("%w: %s compression cannot be written", ErrUnsupportedFormat, k.name)
	}
	wc, err := k.newWriter(writer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s writer: %w", k.name, err)
	}
	return wc, wc.Close, nil
}

// createCompressedFile creates path and returns a writer that compresses into it.
// The returned cleanup flushes the compressor before closing the file.
func createCompressedFile(path string, c CompressionType) (io.Writer, func() error, error) {
	file, err := os.Create(path) //nolint:gosec // output path is built from the export directory and a table name
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file: %w", err)
	}

	writer, flush, err := newCompressWriter(c, file)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, nil, err
	}

	return writer, func() error {
		return errors.Join(flush(), file.Close())
	}, nil
}
