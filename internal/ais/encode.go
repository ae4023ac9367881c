package ais

import (
	"fmt"
	"strings"

	"github.com/saviobatista/sensor-sim/internal/nmea"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// Encode renders rec as AIVDM sentences joined by "\n".
func Encode(rec *types.AisData) string {
	return strings.Join(Sentences(rec), "\n")
}

// Sentences renders rec as one or two AIVDM sentences depending on its message type.
// Unknown message types fall back to the position report layout.
func Sentences(rec *types.AisData) []string {
	switch rec.MessageType {
	case 5:
		return staticVoyageData(rec)
	case 18:
		return []string{classBPositionReport(rec)}
	case 24:
		return staticDataReport(rec)
	default:
		return []string{positionReport(rec)}
	}
}

// positionReport covers message types 1, 2 and 3.
func positionReport(rec *types.AisData) string {
	payload := fmt.Sprintf("%d%09d%02d%.4f%.4f%.1f%.1f%d",
		rec.MessageType,
		rec.MMSI,
		rec.NavigationalStatus,
		rec.Latitude,
		rec.Longitude,
		rec.SpeedOverGround,
		rec.CourseOverGround,
		rec.TimeStamp)
	return sentence(1, 1, payload)
}

// staticVoyageData covers message type 5, split over two continuation sentences.
func staticVoyageData(rec *types.AisData) []string {
	part1 := fmt.Sprintf("%d%09d%d%s%d%s",
		rec.MessageType,
		rec.MMSI,
		rec.IMO,
		nmea.PadRight(rec.CallSign, callSignWidth),
		rec.ShipType,
		nmea.PadRight(rec.VesselName, vesselNameWidth))
	part2 := fmt.Sprintf("%.1f%s%.1f%.1f%.1f%.1f%s",
		rec.Draught,
		rec.ETA,
		rec.DimensionToBow,
		rec.DimensionToStern,
		rec.DimensionToPort,
		rec.DimensionToStarboard,
		nmea.PadRight(rec.Destination, destinationWidth))
	return []string{sentence(2, 1, part1), sentence(2, 2, part2)}
}

// classBPositionReport covers message type 18.
func classBPositionReport(rec *types.AisData) string {
	payload := fmt.Sprintf("%d%09d%.4f%.4f%.1f%.1f%d%d",
		rec.MessageType,
		rec.MMSI,
		rec.Latitude,
		rec.Longitude,
		rec.SpeedOverGround,
		rec.CourseOverGround,
		int(rec.Heading),
		rec.TimeStamp)
	return sentence(1, 1, payload)
}

// staticDataReport covers message type 24. Part A and part B are emitted as two
// standalone single-sentence messages, not as a continuation pair.
func staticDataReport(rec *types.AisData) []string {
	partA := fmt.Sprintf("%d%09d%d%s",
		rec.MessageType,
		rec.MMSI,
		0,
		nmea.PadRight(rec.VesselName, vesselNameWidth))
	partB := fmt.Sprintf("%d%09d%d%s%d%.1f%.1f%.1f%.1f",
		rec.MessageType,
		rec.MMSI,
		1,
		nmea.PadRight(rec.CallSign, callSignWidth),
		rec.ShipType,
		rec.DimensionToBow,
		rec.DimensionToStern,
		rec.DimensionToPort,
		rec.DimensionToStarboard)
	return []string{sentence(1, 1, partA), sentence(1, 1, partB)}
}

// sentence builds "!AIVDM,<total>,<part>,,A,<payload>,0*XX". The checksum covers
// "AIVDM,...,<payload>" and leaves out the fill-bits field.
func sentence(total, part int, payload string) string {
	body := fmt.Sprintf("AIVDM,%d,%d,,A,%s", total, part, payload)
	return "!" + body + ",0*" + nmea.Checksum(body)
}

// VerifySentence recomputes the checksum of a sentence produced by Encode.
func VerifySentence(s string) bool {
	s = strings.TrimRight(s, "\r\n")
	if !strings.HasPrefix(s, "!") {
		return false
	}
	star := strings.LastIndexByte(s, '*')
	if star < 0 || len(s)-star != 3 {
		return false
	}
	fill := strings.LastIndexByte(s[:star], ',')
	if fill < 1 {
		return false
	}
	return strings.EqualFold(nmea.Checksum(s[1:fill]), s[star+1:])
}
