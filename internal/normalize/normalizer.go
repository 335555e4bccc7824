package normalize

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ContextCheckInterval is how often (in rows) to check for context
// cancellation.
var ContextCheckInterval = 100

// Options configures a Normalizer. The zero value is usable.
type Options struct {
	// SampleSize is the number of leading bytes used for charset detection
	// (default: DefaultSampleSize).
	SampleSize int

	// ConfidenceThreshold is the minimum detector confidence for a
	// non-UTF-8 guess (default: DefaultConfidenceThreshold).
	ConfidenceThreshold float64

	// PreserveLongitudeSign disables the dataset convention that stores
	// every longitude as -|value|.
	PreserveLongitudeSign bool

	// Compression selects the output container (default: none).
	Compression Compression
}

// Stats describes one normalization pass.
type Stats struct {
	Encoding  string
	Columns   int
	Rows      int
	BytesRead int64
}

// Result describes a normalized file.
type Result struct {
	InputPath  string
	OutputPath string
	Stats
	Duration time.Duration
}

// Normalizer runs the per-file normalization pipeline.
// It holds no per-file state and is safe for concurrent use.
type Normalizer struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Normalizer. A nil logger uses slog.Default().
func New(logger *slog.Logger, opts Options) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if opts.Compression == "" {
		opts.Compression = CompressionNone
	}

	return &Normalizer{opts: opts, logger: logger}
}

// Options returns the effective options after defaults were applied.
func (n *Normalizer) Options() Options {
	return n.opts
}

// DetectEncoding guesses the read encoding of the file at path.
func (n *Normalizer) DetectEncoding(path string) (string, error) {
	return detectFile(path, n.opts.SampleSize, n.opts.ConfidenceThreshold)
}

// DetectBytes guesses the read encoding of an in-memory sample.
func (n *Normalizer) DetectBytes(sample []byte) string {
	return DetectBytes(sample, n.opts.ConfidenceThreshold)
}

// NormalizeFile normalizes inputPath into outputDir, naming the result with
// OutputName. An existing output of the same name is replaced.
//
// The output is staged in a temporary file and renamed into place only
// after every row has been written, so a failure (including ErrEmptyFile)
// never leaves an output file behind.
func (n *Normalizer) NormalizeFile(ctx context.Context, inputPath, outputDir string) (*Result, error) {
	start := time.Now()
	base := filepath.Base(inputPath)
	outputPath := OutputPath(inputPath, outputDir, n.opts.Compression)

	enc, err := n.DetectEncoding(inputPath)
	if err != nil {
		return nil, fmt.Errorf("detect encoding of %s: %w", base, err)
	}

	n.logger.Info("processing file",
		"file", base,
		"encoding", enc,
		"output", filepath.Base(outputPath),
	)

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", base, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(outputDir, "."+filepath.Base(outputPath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create output for %s: %w", base, err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	out, err := compressWriter(tmp, n.opts.Compression)
	if err != nil {
		return nil, err
	}

	stats, err := n.NormalizeStream(ctx, in, out, enc)
	if err != nil {
		if errors.Is(err, ErrEmptyFile) {
			n.logger.Error("empty file or missing header", "file", base)
		}
		return nil, fmt.Errorf("normalize %s: %w", base, err)
	}

	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("finish output for %s: %w", base, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return nil, fmt.Errorf("set output mode for %s: %w", base, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close output for %s: %w", base, err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return nil, fmt.Errorf("save output for %s: %w", base, err)
	}
	committed = true

	n.logger.Info("saved normalized file",
		"output", outputPath,
		"rows", stats.Rows,
	)

	return &Result{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Stats:      stats,
		Duration:   time.Since(start),
	}, nil
}

// NormalizeStream reads a table from r in the named encoding and writes the
// normalized UTF-8 table to w.
//
// The header is written unchanged and fixes the output width. Every data
// row is cleaned, padded or truncated to that width, and normalized by
// column role. A blank input line becomes a row of empty fields. Nothing
// is written to w when the input has no header or starts with a blank line.
func (n *Normalizer) NormalizeStream(ctx context.Context, r io.Reader, w io.Writer, encoding string) (Stats, error) {
	counter := &countingReader{r: r}
	stats := Stats{Encoding: encoding}

	decoded, err := decodingReader(counter, encoding)
	if errors.Is(err, ErrUnsupportedEncoding) {
		n.logger.Warn("unsupported encoding, reading as utf-8", "encoding", encoding)
		stats.Encoding = FallbackEncoding
		decoded, err = decodingReader(counter, FallbackEncoding)
	}
	if err != nil {
		return stats, err
	}

	lines := &lineCounter{r: decoded}
	reader := newReader(lines)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return stats, ErrEmptyFile
	}
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	// A blank first line is an empty header, even when rows follow it.
	if first, _ := reader.FieldPos(0); first > 1 || len(header) == 0 {
		return stats, ErrEmptyFile
	}

	writer := newWriter(w)
	if err := writer.Write(header); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	roles := RolesFromHeader(header)
	stats.Columns = len(roles)
	prevEnd := recordEndLine(reader, header)

	for count := 2; ; count++ {
		if count%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, fmt.Errorf("operation cancelled at line %d: %w", prevEnd+1, err)
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read line %d: %w", prevEnd+1, err)
		}

		start, _ := reader.FieldPos(0)
		if err := n.writeBlankRows(writer, roles, start-prevEnd-1, &stats); err != nil {
			return stats, err
		}
		if err := writer.Write(n.NormalizeRow(record, roles)); err != nil {
			return stats, fmt.Errorf("write line %d: %w", start, err)
		}
		stats.Rows++
		prevEnd = recordEndLine(reader, record)
	}

	if err := n.writeBlankRows(writer, roles, lines.Lines()-prevEnd, &stats); err != nil {
		return stats, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}

	stats.BytesRead = counter.n
	return stats, nil
}

// writeBlankRows writes count empty rows, one per blank input line.
func (n *Normalizer) writeBlankRows(writer *csv.Writer, roles []Role, count int, stats *Stats) error {
	for i := 0; i < count; i++ {
		if err := writer.Write(n.NormalizeRow(nil, roles)); err != nil {
			return fmt.Errorf("write blank row: %w", err)
		}
		stats.Rows++
	}
	return nil
}

// recordEndLine is the input line on which the last read record ends.
// Quoted fields may span lines.
func recordEndLine(reader *csv.Reader, record []string) int {
	last := len(record) - 1
	line, _ := reader.FieldPos(last)
	return line + strings.Count(record[last], "\n")
}

// NormalizeRow cleans a record and fits it to len(roles) columns, then
// applies each column's role normalizer. The returned slice always has
// exactly len(roles) fields.
func (n *Normalizer) NormalizeRow(record []string, roles []Role) []string {
	row := make([]string, len(roles))
	for i := 0; i < len(row) && i < len(record); i++ {
		row[i] = CleanText(flattenLineBreaks(record[i]))
	}

	for i, role := range roles {
		row[i] = n.normalizeField(role, row[i])
	}
	return row
}

func (n *Normalizer) normalizeField(role Role, v string) string {
	switch role {
	case RoleDate:
		return NormalizeDate(v)
	case RoleTimestamp:
		return NormalizeTimestamp(v)
	case RoleLatitude:
		return NormalizeLatitude(v)
	case RoleLongitude:
		return NormalizeLongitude(v, !n.opts.PreserveLongitudeSign)
	default:
		return v
	}
}
