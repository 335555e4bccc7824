package normalize

// streaming.go provides the readers that sit between the raw input and the
// CSV parser:
//
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - skipBOM: drops a leading U+FEFF from a UTF-8 stream
//   - countingReader: tracks raw bytes consumed for logging
//   - lineCounter: counts decoded lines so blank lines can be restored

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// utf8Sanitizer wraps an io.Reader and replaces every byte that does not
// start a valid UTF-8 sequence with '?'. Sequences split across reads are
// carried over, so memory stays O(read size).
type utf8Sanitizer struct {
	r   io.Reader
	err error

	// Bytes read but not yet emitted; may end in an incomplete sequence.
	pending []byte
	buf     []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r}
}

// Read implements io.Reader. p must hold at least utf8.UTFMax bytes.
func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	for {
		if s.err == nil {
			want := len(p) - len(s.pending)
			if want < utf8.UTFMax {
				want = utf8.UTFMax
			}
			if cap(s.buf) < want {
				s.buf = make([]byte, want)
			}
			n, err := s.r.Read(s.buf[:want])
			s.pending = append(s.pending, s.buf[:n]...)
			s.err = err
		}

		n := s.drain(p, s.err != nil)
		if n > 0 {
			return n, nil
		}
		if s.err != nil && len(s.pending) == 0 {
			return 0, s.err
		}
	}
}

// drain copies complete runes from pending into p. With final set, a
// trailing incomplete sequence is treated as invalid.
func (s *utf8Sanitizer) drain(p []byte, final bool) int {
	w, i := 0, 0
	for i < len(s.pending) && w < len(p) {
		rest := s.pending[i:]
		if !final && !utf8.FullRune(rest) {
			break
		}

		r, size := utf8.DecodeRune(rest)
		if r == utf8.RuneError && size == 1 {
			p[w] = '?'
			w++
			i++
			continue
		}
		if w+size > len(p) {
			break
		}
		copy(p[w:], rest[:size])
		w += size
		i += size
	}

	s.pending = append(s.pending[:0], s.pending[i:]...)
	return w
}

// skipBOM returns a reader positioned after a leading UTF-8 byte order
// mark, if there is one.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// countingReader tracks how many bytes have been read from r.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// lineCounter counts the lines in a decoded stream. encoding/csv drops
// blank lines; comparing its record positions with the total lets the
// caller write them back as empty rows.
type lineCounter struct {
	r        io.Reader
	newlines int
	last     byte
	seen     bool
}

func (l *lineCounter) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		l.newlines += bytes.Count(p[:n], []byte{'\n'})
		l.last = p[n-1]
		l.seen = true
	}
	return n, err
}

// Lines is the number of lines read so far. A final line without a
// trailing newline still counts.
func (l *lineCounter) Lines() int {
	if l.seen && l.last != '\n' {
		return l.newlines + 1
	}
	return l.newlines
}
