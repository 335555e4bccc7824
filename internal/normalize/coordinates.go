package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled DMS pattern: degrees, minutes, optional seconds.
// Matches anywhere in the string, e.g. `40° 30′ 15″` or `40 30`.
var dmsRegex = regexp.MustCompile(`(\d+)[°\s]+(\d+)[′']?\s*(\d+)?[″"]?`)

// CoordinatePrecision is the number of decimal places kept after a DMS
// conversion.
const CoordinatePrecision = 7

// DMSToDecimal converts a degrees/minutes/seconds string to decimal degrees.
//
// Missing seconds default to 0 and the result is rounded to
// CoordinatePrecision places. When no DMS shape is found the value is parsed
// as a plain decimal, accepting ',' as the decimal separator. Hex floats,
// infinities and NaN are not coordinates. The second return value is false
// when neither form parses.
func DMSToDecimal(s string) (float64, bool) {
	if m := dmsRegex.FindStringSubmatch(s); m != nil {
		deg, err1 := strconv.Atoi(m[1])
		mins, err2 := strconv.Atoi(m[2])
		sec := 0
		var err3 error
		if m[3] != "" {
			sec, err3 = strconv.Atoi(m[3])
		}
		if err1 == nil && err2 == nil && err3 == nil {
			v := float64(deg) + float64(mins)/60 + float64(sec)/3600
			return roundTo(v, CoordinatePrecision), true
		}
	}

	plain := strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if strings.ContainsAny(plain, "xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(plain, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// NormalizeLatitude returns the decimal form of a latitude field, or the
// input unchanged when it does not parse.
func NormalizeLatitude(s string) string {
	v, ok := DMSToDecimal(s)
	if !ok {
		return s
	}
	return formatCoordinate(v)
}

// NormalizeLongitude returns the decimal form of a longitude field, or the
// input unchanged when it does not parse. With forceNegative set the
// result is always -|value|.
func NormalizeLongitude(s string, forceNegative bool) string {
	v, ok := DMSToDecimal(s)
	if !ok {
		return s
	}
	if forceNegative {
		v = -math.Abs(v)
	}
	return formatCoordinate(v)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// formatCoordinate renders the shortest decimal that round-trips.
// Negative zero is written as "0".
func formatCoordinate(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
