package nmea

import (
	"math"
	"strconv"
	"strings"
)

// splitSentence strips the leading '$'/'!' and the trailing
// "*HH\r\n"/"\r\n" framing bytes the lexer left attached, then splits
// the remaining comma-separated fields. field[0] is the full tag
// (talker + sentence id, e.g. "GPRMC"); trailing omitted fields are
// represented as empty strings rather than being dropped.
func splitSentence(sentence []byte) []string {
	s := string(sentence)
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	if i := strings.LastIndexByte(s, '*'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 0 && (s[0] == '$' || s[0] == '!') {
		s = s[1:]
	}
	return strings.Split(s, ",")
}

// knownTalkers lists the two-letter talker IDs spec.md §6 names for
// dispatch purposes. A tag is only split into talker+id when its
// first two characters are one of these; anything else (proprietary
// $P... sentences, and short full-word tags like "XDR"/"INFO") is
// matched whole.
var knownTalkers = map[string]bool{
	"GP": true, "GL": true, "GA": true, "GB": true, "GQ": true,
	"GN": true, "GI": true, "BD": true, "PQ": true, "QZ": true,
	"SD": true, "AP": true, "HE": true, "II": true, "HC": true,
}

// splitTag separates the talker ID from a non-proprietary tag's
// sentence id (e.g. "GPRMC" -> ("GP", "RMC")). Proprietary ($P...)
// sentences and tags whose prefix isn't a known talker return
// ("", fullTag).
func splitTag(tag string) (talker, id string) {
	if len(tag) >= 5 && knownTalkers[tag[0:2]] {
		return tag[0:2], tag[2:]
	}
	return "", tag
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// decodeLatLon converts an NMEA "ddmm.mmmm"/"dddmm.mmmm" field plus
// hemisphere letter into signed decimal degrees. Per spec.md §9 this
// deliberately avoids modf/fmod: the whole-degree part is pulled out
// with an integer division of the truncated field, the remainder is
// minutes, and degrees = whole + minutes/60.
func decodeLatLon(val string, hemi string) (float64, bool) {
	v, ok := parseFloat(val)
	if !ok {
		return 0, false
	}
	whole := math.Trunc(v / 100)
	minutes := v - whole*100
	deg := whole + minutes/60.0
	if hemi == "S" || hemi == "W" {
		deg = -deg
	}
	return deg, true
}

// filterDOP rejects the NMEA sentinel values (99.99, 99.00, 0.00) a
// receiver emits to mean "unknown", accepting the documented 0.01..89.99
// range per spec.md §4.E's GSA/GGA handler contracts.
func filterDOP(s string) (float64, bool) {
	v, ok := parseFloat(s)
	if !ok {
		return 0, false
	}
	if v == 99.99 || v == 99.00 || v == 0.00 {
		return 0, false
	}
	if v < 0.01 || v > 89.99 {
		return 0, false
	}
	return v, true
}
