package normalize

import "errors"

// ErrEmptyFile is returned when the input has no header row.
// No output file is produced.
var ErrEmptyFile = errors.New("empty file: no header row")

// ErrUnsupportedEncoding is returned when a detected charset name has no
// known decoder.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")
