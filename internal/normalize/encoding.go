package normalize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

const (
	// DefaultSampleSize is how many leading bytes are inspected to guess
	// the charset of a file.
	DefaultSampleSize = 1000

	// DefaultConfidenceThreshold is the minimum detector confidence for a
	// guess to be trusted over UTF-8.
	DefaultConfidenceThreshold = 0.9

	// FallbackEncoding is used whenever a guess is missing or not trusted.
	FallbackEncoding = "utf-8"
)

// Guess is a charset candidate with a confidence in [0,1].
type Guess struct {
	Name       string
	Confidence float64
}

// encodingAliases maps detector charset names that the registries spell
// differently.
var encodingAliases = map[string]string{
	"gb-18030": "gb18030",
	"utf8":     "utf-8",
}

// DetectEncoding guesses the charset of the file at path from its first
// sampleSize bytes using DefaultConfidenceThreshold. I/O errors are
// returned to the caller.
func DetectEncoding(path string, sampleSize int) (string, error) {
	return detectFile(path, sampleSize, DefaultConfidenceThreshold)
}

func detectFile(path string, sampleSize int, threshold float64) (string, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read sample: %w", err)
	}

	return DetectBytes(buf[:n], threshold), nil
}

// DetectBytes resolves the charset of an in-memory sample.
func DetectBytes(sample []byte, threshold float64) string {
	return ResolveEncoding(GuessEncoding(sample), threshold)
}

// GuessEncoding runs the statistical charset detector over sample.
// An empty Guess means nothing could be detected.
func GuessEncoding(sample []byte) Guess {
	if len(sample) == 0 {
		return Guess{}
	}

	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || res == nil || res.Charset == "" {
		return Guess{}
	}

	return Guess{
		Name:       strings.ToLower(res.Charset),
		Confidence: float64(res.Confidence) / 100,
	}
}

// ResolveEncoding returns the guessed name, or FallbackEncoding when the
// guess is empty or its confidence is below threshold.
func ResolveEncoding(g Guess, threshold float64) string {
	if g.Name == "" || g.Confidence < threshold {
		return FallbackEncoding
	}
	return g.Name
}

// lookupEncoding finds a decoder for a charset name. A nil encoding with a
// nil error means the input is already UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[key]; ok {
		key = alias
	}
	if key == "" || key == FallbackEncoding {
		return nil, nil
	}

	if enc, err := htmlindex.Get(key); err == nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(key); err == nil && enc != nil {
		return enc, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, name)
}

// decodingReader returns a UTF-8 view of r read as the named charset.
// UTF-8 input has invalid sequences replaced; every stream has a leading
// byte order mark removed.
func decodingReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}

	var decoded io.Reader
	if enc == nil {
		decoded = newUTF8Sanitizer(r)
	} else {
		decoded = transform.NewReader(r, enc.NewDecoder())
	}

	return skipBOM(decoded), nil
}
