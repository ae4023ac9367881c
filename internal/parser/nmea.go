package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saviobatista/sensor-sim/internal/nmea"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// Sentence is one NMEA 0183 sentence split into its parts.
type Sentence struct {
	Start    byte
	Talker   string
	Type     string
	Fields   []string
	Checksum string
	Raw      string
}

// ParseNMEA splits a "$" or "!" sentence and verifies its checksum. For "!"
// encapsulation sentences the trailing fill-bits field is left out of the
// checksum.
func ParseNMEA(line string) (*Sentence, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 2 || (line[0] != '$' && line[0] != '!') {
		return nil, fmt.Errorf("%w: missing start character in %q", ErrMalformed, line)
	}

	star := strings.LastIndexByte(line, '*')
	if star < 0 || len(line)-star != 3 {
		return nil, fmt.Errorf("%w: missing checksum in %q", ErrMalformed, line)
	}

	body := line[1:star]
	covered := body
	if line[0] == '!' {
		fill := strings.LastIndexByte(body, ',')
		if fill < 0 {
			return nil, fmt.Errorf("%w: missing fill bits in %q", ErrMalformed, line)
		}
		covered = body[:fill]
	}

	got := line[star+1:]
	if want := nmea.Checksum(covered); !strings.EqualFold(want, got) {
		return nil, fmt.Errorf("%w: %q has %s, computed %s", ErrChecksum, line, got, want)
	}

	parts := strings.Split(body, ",")
	address := parts[0]
	if len(address) < 5 {
		return nil, fmt.Errorf("%w: short address field %q", ErrMalformed, address)
	}

	return &Sentence{
		Start:    line[0],
		Talker:   address[:2],
		Type:     address[2:],
		Fields:   parts[1:],
		Checksum: strings.ToUpper(got),
		Raw:      line,
	}, nil
}

// VDM is an AIVDM encapsulation sentence.
type VDM struct {
	Total    int
	Part     int
	Sequence string
	Channel  string
	Payload  string
	FillBits int
}

// ParseVDM parses and verifies one AIVDM sentence.
func ParseVDM(line string) (*VDM, error) {
	s, err := ParseNMEA(line)
	if err != nil {
		return nil, err
	}
	if s.Start != '!' || s.Type != "VDM" {
		return nil, fmt.Errorf("%w: not a VDM sentence: %q", ErrMalformed, line)
	}
	if len(s.Fields) != 6 {
		return nil, fmt.Errorf("%w: VDM needs 6 fields, got %d", ErrMalformed, len(s.Fields))
	}

	total, err1 := strconv.Atoi(s.Fields[0])
	part, err2 := strconv.Atoi(s.Fields[1])
	fill, err3 := strconv.Atoi(s.Fields[5])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, fmt.Errorf("%w: non-numeric VDM header in %q", ErrMalformed, line)
	}
	if total < 1 || part < 1 || part > total {
		return nil, fmt.Errorf("%w: fragment %d of %d", ErrMalformed, part, total)
	}

	return &VDM{
		Total:    total,
		Part:     part,
		Sequence: s.Fields[2],
		Channel:  s.Fields[3],
		Payload:  s.Fields[4],
		FillBits: fill,
	}, nil
}

// DecodeGPS rebuilds a GPS fix from GGA, RMC and VTG lines. GGA and RMC are required.
func DecodeGPS(raw string) (*types.GpsData, error) {
	rec := &types.GpsData{Header: types.Header{DataType: types.DataTypeGPS}}
	var clock, date string
	var haveGGA, haveRMC bool

	for _, line := range strings.Split(raw, "\n") {
		s, err := ParseNMEA(line)
		if err != nil {
			return nil, err
		}
		switch s.Type {
		case "GGA":
			if err := decodeGGA(s, rec); err != nil {
				return nil, err
			}
			clock = s.Fields[0]
			haveGGA = true
		case "RMC":
			if err := decodeRMC(s, rec); err != nil {
				return nil, err
			}
			date = s.Fields[8]
			haveRMC = true
		case "VTG":
			if len(s.Fields) < 8 {
				return nil, fmt.Errorf("%w: VTG needs 8 fields, got %d", ErrMalformed, len(s.Fields))
			}
		default:
			return nil, fmt.Errorf("%w: unexpected sentence %s%s", ErrMalformed, s.Talker, s.Type)
		}
	}

	if !haveGGA || !haveRMC {
		return nil, fmt.Errorf("%w: GGA and RMC are both required", ErrMalformed)
	}

	ts, err := time.Parse("020106150405.000", date+clock)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date/time %s %s", ErrMalformed, date, clock)
	}
	rec.Timestamp = ts.UnixMilli()
	return rec, nil
}

func decodeGGA(s *Sentence, rec *types.GpsData) error {
	f := s.Fields
	if len(f) < 14 {
		return fmt.Errorf("%w: GGA needs 14 fields, got %d", ErrMalformed, len(f))
	}

	var err error
	if rec.Latitude, err = ParseCoordinate(f[1], f[2]); err != nil {
		return err
	}
	if rec.Longitude, err = ParseCoordinate(f[3], f[4]); err != nil {
		return err
	}

	var p numParser
	rec.FixQuality = p.atoi(f[5])
	rec.Satellites = p.atoi(f[6])
	rec.HDOP = p.atof(f[7])
	rec.Altitude = p.atof(f[8])
	rec.GeoidHeight = p.atof(f[10])
	return p.err
}

func decodeRMC(s *Sentence, rec *types.GpsData) error {
	f := s.Fields
	if len(f) < 11 {
		return fmt.Errorf("%w: RMC needs 11 fields, got %d", ErrMalformed, len(f))
	}
	if f[1] != "A" && f[1] != "V" {
		return fmt.Errorf("%w: RMC status %q", ErrMalformed, f[1])
	}

	var p numParser
	rec.Speed = p.atof(f[6])
	rec.Course = p.atof(f[7])
	rec.MagneticVariation = p.atof(f[9])
	if p.err != nil {
		return p.err
	}
	switch f[10] {
	case "W":
		rec.MagneticVariation = -rec.MagneticVariation
	case "E":
	default:
		return fmt.Errorf("%w: RMC variation direction %q", ErrMalformed, f[10])
	}
	return nil
}

// ParseCoordinate converts "ddmm.mmmm"/"dddmm.mmmm" and a hemisphere letter into
// signed decimal degrees.
func ParseCoordinate(value, hemisphere string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: coordinate %q", ErrMalformed, value)
	}
	deg := float64(int(v / 100))
	deg += (v - deg*100) / 60

	switch hemisphere {
	case "N", "E":
		return deg, nil
	case "S", "W":
		return -deg, nil
	default:
		return 0, fmt.Errorf("%w: hemisphere %q", ErrMalformed, hemisphere)
	}
}

// numParser keeps the first conversion error so a run of fields can be read
// without checking each one.
type numParser struct {
	err error
}

func (p *numParser) atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: integer field %q", ErrMalformed, s)
	}
	return n
}

func (p *numParser) atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: numeric field %q", ErrMalformed, s)
	}
	return v
}
