package normalize

import (
	"encoding/csv"
	"io"
)

// Delimiter is the field separator for both input and output.
const Delimiter = ';'

// newReader returns a csv.Reader for the fixed input dialect: ';'
// delimiter, '"' quoting, leading spaces trimmed, ragged rows allowed.
func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

// newWriter returns a csv.Writer that quotes only when a field requires it.
func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	return cw
}
