package parser

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ADSBFrame is the header of a Mode S extended squitter frame.
type ADSBFrame struct {
	DF   int    // downlink format
	CA   int    // transponder capability
	ICAO string // 24-bit address, uppercase hex
	Data []byte // everything after the address
}

// ParseADSB decodes a 22 character hex frame.
func ParseADSB(frame string) (*ADSBFrame, error) {
	frame = strings.TrimSpace(frame)
	if len(frame) != 22 {
		return nil, fmt.Errorf("%w: ADS-B frame must be 22 hex characters, got %d", ErrMalformed, len(frame))
	}

	b, err := hex.DecodeString(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: ADS-B frame is not hex: %v", ErrMalformed, err)
	}

	return &ADSBFrame{
		DF:   int(b[0] >> 3),
		CA:   int(b[0] & 0x07),
		ICAO: strings.ToUpper(hex.EncodeToString(b[1:4])),
		Data: b[4:],
	}, nil
}
