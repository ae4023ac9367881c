// Package nmea holds the NMEA 0183 helpers shared by the GPS and AIS encoders:
// checksum, coordinate and time formatting.
package nmea

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Checksum XORs every byte of body and renders the result as two uppercase hex
// digits. body must not include the leading '$' or '!' nor the "*XX" suffix.
func Checksum(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("%02X", sum)
}

// Sentence assembles start + body + "*" + checksum(body).
func Sentence(start, body string) string {
	return start + body + "*" + Checksum(body)
}

// Verify reports whether a '$' sentence carries a checksum matching the
// characters between '$' and '*'. AIS '!' sentences checksum differently; use
// ais.VerifySentence for those.
func Verify(sentence string) bool {
	sentence = strings.TrimRight(sentence, "\r\n")
	if len(sentence) < 4 || sentence[0] != '$' {
		return false
	}
	star := strings.LastIndexByte(sentence, '*')
	if star < 1 || len(sentence)-star != 3 {
		return false
	}
	return strings.EqualFold(Checksum(sentence[1:star]), sentence[star+1:])
}

// FormatLatitude renders a latitude as "ddmm.mmmm,N" or "ddmm.mmmm,S".
// Minutes are rounded without carrying into degrees, so 0.99999999 renders
// as "0060.0000,N".
func FormatLatitude(lat float64) string {
	hemisphere := "N"
	if lat < 0 {
		hemisphere = "S"
	}
	deg, min := degreesMinutes(lat)
	return fmt.Sprintf("%02d%07.4f,%s", deg, min, hemisphere)
}

// FormatLongitude renders a longitude as "dddmm.mmmm,E" or "dddmm.mmmm,W".
// Minutes do not carry, as in FormatLatitude.
func FormatLongitude(lon float64) string {
	hemisphere := "E"
	if lon < 0 {
		hemisphere = "W"
	}
	deg, min := degreesMinutes(lon)
	return fmt.Sprintf("%03d%07.4f,%s", deg, min, hemisphere)
}

func degreesMinutes(v float64) (int, float64) {
	abs := math.Abs(v)
	deg := int(abs)
	return deg, (abs - float64(deg)) * 60
}

// FormatTime renders the UTC time of day of an epoch-millisecond timestamp as
// hhmmss.sss. Sub-second precision is dropped, so the fraction is always .000.
func FormatTime(ms int64) string {
	return toUTC(ms).Format("150405") + ".000"
}

// FormatDate renders the UTC date of an epoch-millisecond timestamp as ddmmyy.
func FormatDate(ms int64) string {
	return toUTC(ms).Format("020106")
}

func toUTC(ms int64) time.Time {
	return time.Unix(ms/1000, 0).UTC()
}

// PadRight pads s with spaces to exactly width characters, truncating longer input.
func PadRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
