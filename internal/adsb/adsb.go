// Package adsb generates ADS-B surveillance samples and renders them as DF17
// Extended Squitter hex frames.
package adsb

import (
	"strconv"
	"strings"
	"time"

	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/types"
)

const (
	// DF17Marker is downlink format 17 with capability 5.
	DF17Marker = "8D"
	// FrameLength is the length of an encoded frame in hex characters.
	FrameLength = 22

	tailLength = 14
)

// Generate returns a random ADS-B sample.
func Generate(src *random.Source) *types.AdsbData {
	return &types.AdsbData{
		Header: types.Header{
			Timestamp: time.Now().UnixMilli(),
			DataType:  types.DataTypeADSB,
			Latitude:  src.Latitude(),
			Longitude: src.Longitude(),
		},
		ICAO:         src.HexString(6, true),
		Altitude:     src.Float64Range(0, 45000),
		GroundSpeed:  src.Float64Range(0, 600),
		Track:        src.Float64Range(0, 359.9),
		VerticalRate: src.Float64Range(-3000, 3000),
		Squawk:       squawk(src),
		Alert:        src.Bool(),
		Emergency:    src.Bool(),
		SPI:          src.Bool(),
		OnGround:     src.Bool(),
	}
}

// squawk returns four octal digits.
func squawk(src *random.Source) string {
	var sb strings.Builder
	for i := 0; i < 4; i++ {
		sb.WriteString(strconv.Itoa(src.Intn(8)))
	}
	return sb.String()
}

// Encode renders rec as "8D" + ICAO + 14 random hex digits. The tail stands in for
// type code, CPR position and parity and is not decodable.
func Encode(src *random.Source, rec *types.AdsbData) string {
	return DF17Marker + rec.ICAO + src.HexString(tailLength, true)
}
