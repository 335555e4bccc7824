package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// CleanText applies NFKC normalization, removes every non-printable
// character and trims surrounding whitespace.
//
// Input that is not valid UTF-8 cannot be normalized and is returned as-is.
func CleanText(s string) string {
	if !utf8.ValidString(s) {
		return s
	}

	out := norm.NFKC.String(s)

	filtered := strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, out)

	// Removing a control character can bring a base and a combining mark
	// together; compose again so the result is stable.
	if len(filtered) != len(out) {
		filtered = norm.NFKC.String(filtered)
	}

	return strings.TrimSpace(filtered)
}

// flattenLineBreaks replaces CR and LF inside a field with single spaces.
func flattenLineBreaks(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return lineBreakReplacer.Replace(s)
}

var lineBreakReplacer = strings.NewReplacer("\r", " ", "\n", " ")
