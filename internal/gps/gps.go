// Package gps generates GPS fixes and renders them as NMEA 0183 GGA, RMC and VTG
// sentences.
package gps

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/saviobatista/sensor-sim/internal/nmea"
	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// KnotsToKmh converts knots to kilometres per hour.
const KnotsToKmh = 1.852

// Generate returns a random GPS fix.
func Generate(src *random.Source) *types.GpsData {
	return &types.GpsData{
		Header: types.Header{
			Timestamp: time.Now().UnixMilli(),
			DataType:  types.DataTypeGPS,
			Latitude:  src.Latitude(),
			Longitude: src.Longitude(),
		},
		Altitude:          src.Float64Range(-100, 10000),
		Speed:             src.Float64Range(0, 100),
		Course:            src.Float64Range(0, 359.9),
		Satellites:        src.IntRange(1, 12),
		FixQuality:        src.Intn(3),
		HDOP:              src.Float64Range(1, 10),
		GeoidHeight:       src.Float64Range(-30, 30),
		MagneticVariation: src.Float64Range(-20, 20),
	}
}

// Encode renders rec as GGA, RMC and VTG sentences joined by "\n".
func Encode(rec *types.GpsData) string {
	return strings.Join([]string{GGA(rec), RMC(rec), VTG(rec)}, "\n")
}

// GGA renders the fix data sentence.
func GGA(rec *types.GpsData) string {
	body := fmt.Sprintf("GPGGA,%s,%s,%s,%d,%d,%.1f,%.1f,M,%.1f,M,,",
		nmea.FormatTime(rec.Timestamp),
		nmea.FormatLatitude(rec.Latitude),
		nmea.FormatLongitude(rec.Longitude),
		rec.FixQuality,
		rec.Satellites,
		rec.HDOP,
		rec.Altitude,
		rec.GeoidHeight)
	return nmea.Sentence("$", body)
}

// RMC renders the recommended minimum sentence. Status is A when the fix quality
// is above zero, V otherwise.
func RMC(rec *types.GpsData) string {
	status := "V"
	if rec.FixQuality > 0 {
		status = "A"
	}
	variationDir := "E"
	if rec.MagneticVariation < 0 {
		variationDir = "W"
	}
	body := fmt.Sprintf("GPRMC,%s,%s,%s,%s,%.1f,%.1f,%s,%.1f,%s",
		nmea.FormatTime(rec.Timestamp),
		status,
		nmea.FormatLatitude(rec.Latitude),
		nmea.FormatLongitude(rec.Longitude),
		rec.Speed,
		rec.Course,
		nmea.FormatDate(rec.Timestamp),
		math.Abs(rec.MagneticVariation),
		variationDir)
	return nmea.Sentence("$", body)
}

// VTG renders the track made good sentence.
func VTG(rec *types.GpsData) string {
	body := fmt.Sprintf("GPVTG,%.1f,T,%.1f,M,%.1f,N,%.1f,K",
		rec.Course,
		MagneticCourse(rec.Course, rec.MagneticVariation),
		rec.Speed,
		rec.Speed*KnotsToKmh)
	return nmea.Sentence("$", body)
}

// MagneticCourse applies the magnetic variation to a true course and normalises
// the result into [0,360).
func MagneticCourse(course, variation float64) float64 {
	c := course + variation
	if c < 0 {
		c += 360
	}
	if c >= 360 {
		c -= 360
	}
	return c
}
