package normalize

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// OutputSuffix is appended to the input file stem to name the output.
const OutputSuffix = "_normalized"

// Compression selects how the normalized output is stored.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a compression name. Empty means none.
func ParseCompression(s string) (Compression, error) {
	switch Compression(strings.ToLower(strings.TrimSpace(s))) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd:
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none or zstd)", s)
	}
}

// OutputName returns the normalized file name for an input path:
// "data.csv" becomes "data_normalized.csv" (".zst" added for zstd).
func OutputName(inputPath string, c Compression) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}

	name := stem + OutputSuffix + ".csv"
	if c == CompressionZstd {
		name += ".zst"
	}
	return name
}

// OutputPath places OutputName inside outputDir.
func OutputPath(inputPath, outputDir string, c Compression) string {
	return filepath.Join(outputDir, OutputName(inputPath, c))
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w according to c. Closing the result flushes any
// compression frame but does not close w.
func compressWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	if c != CompressionZstd {
		return nopWriteCloser{w}, nil
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return enc, nil
}
