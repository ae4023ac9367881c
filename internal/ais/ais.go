// Package ais generates AIS vessel reports and renders them as AIVDM sentences.
//
// The sentence payloads are plain decimal concatenations of the report fields,
// not 6-bit armoured AIS binary messages.
package ais

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// ErrInvalidMessageType is returned when a message type outside 1..27 is requested.
var ErrInvalidMessageType = errors.New("AIS message type must be between 1 and 27")

const (
	MinMessageType = 1
	MaxMessageType = 27

	callSignWidth    = 7
	vesselNameWidth  = 20
	destinationWidth = 20
)

// MessageTypes are the message types produced by Generate.
var MessageTypes = []int{1, 2, 3, 5, 18, 24}

var (
	vesselPrefixes = []string{"MV", "SS", "MY", "SY", "MSC", "USNS", "HMS", "RMS"}
	vesselNames    = []string{
		"EXPLORER", "VOYAGER", "DISCOVERY", "PIONEER", "ENDEAVOR", "NAVIGATOR",
		"MARINER", "ADVENTURER", "PATHFINDER", "SURVEYOR", "INVESTIGATOR", "RESEARCHER",
	}
	destinations = []string{
		"NEW YORK", "ROTTERDAM", "SINGAPORE", "SHANGHAI", "HONG KONG",
		"TOKYO", "BUSAN", "LOS ANGELES", "HAMBURG", "ANTWERP", "DUBAI",
		"SANTOS", "VALENCIA", "ALGECIRAS", "PORT SAID", "COLOMBO",
	}
)

// Generate returns a random AIS report with a message type drawn from MessageTypes.
func Generate(src *random.Source) *types.AisData {
	return &types.AisData{
		Header: types.Header{
			Timestamp: time.Now().UnixMilli(),
			DataType:  types.DataTypeAIS,
			Latitude:  src.Latitude(),
			Longitude: src.Longitude(),
		},
		MMSI:                 200000000 + src.Intn(600000000),
		VesselName:           random.Pick(src, vesselPrefixes) + " " + random.Pick(src, vesselNames),
		CallSign:             callSign(src),
		IMO:                  1000000 + src.Intn(9000000),
		SpeedOverGround:      src.Float64Range(0, 30),
		CourseOverGround:     src.Float64Range(0, 360),
		Heading:              src.Float64Range(0, 360),
		NavigationalStatus:   src.Intn(15),
		ShipType:             src.IntRange(1, 99),
		Draught:              src.Float64Range(0, 20),
		Destination:          random.Pick(src, destinations),
		MessageType:          random.Pick(src, MessageTypes),
		PositionAccuracy:     src.Bool(),
		RAIMFlag:             src.Intn(2),
		TimeStamp:            src.Intn(60),
		ManeuverIndicator:    src.Intn(3),
		ETA:                  eta(src),
		DimensionToBow:       src.Float64Range(5, 300),
		DimensionToStern:     src.Float64Range(5, 100),
		DimensionToPort:      src.Float64Range(5, 50),
		DimensionToStarboard: src.Float64Range(5, 50),
		RateOfTurn:           src.Float64Range(-720, 720),
	}
}

// GenerateOfType returns a random report carrying messageType. Types outside
// 1..27 are rejected; types that have no dedicated encoding still encode as a
// position report.
func GenerateOfType(src *random.Source, messageType int) (*types.AisData, error) {
	if messageType < MinMessageType || messageType > MaxMessageType {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMessageType, messageType)
	}
	rec := Generate(src)
	rec.MessageType = messageType
	return rec, nil
}

// callSign returns two letters followed by two to four digits.
func callSign(src *random.Source) string {
	var sb strings.Builder
	sb.WriteByte(byte('A' + src.Intn(26)))
	sb.WriteByte(byte('A' + src.Intn(26)))
	digits := src.IntRange(2, 4)
	for i := 0; i < digits; i++ {
		sb.WriteString(strconv.Itoa(src.Intn(10)))
	}
	return sb.String()
}

// eta returns "MM-DD HH:MM". Days stop at 28 so every month is valid.
func eta(src *random.Source) string {
	return fmt.Sprintf("%02d-%02d %02d:%02d",
		src.IntRange(1, 12), src.IntRange(1, 28), src.Intn(24), src.Intn(60))
}
