// Package parser reads the wire formats produced by the simulator back into
// structured values and checks their integrity.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saviobatista/sensor-sim/internal/types"
)

var (
	// ErrMalformed is returned when a message does not have the expected shape.
	ErrMalformed = errors.New("malformed message")
	// ErrChecksum is returned when a checksum does not match the message body.
	ErrChecksum = errors.New("checksum mismatch")
)

// Validate parses every line of raw according to dt and reports the first failure.
func Validate(dt types.DataType, raw string) error {
	switch dt {
	case types.DataTypeADSB:
		_, err := ParseADSB(raw)
		return err
	case types.DataTypeAIS:
		for _, line := range strings.Split(raw, "\n") {
			if _, err := ParseVDM(line); err != nil {
				return err
			}
		}
		return nil
	case types.DataTypeGPS:
		_, err := DecodeGPS(raw)
		return err
	case types.DataTypeLoRaWAN:
		up, err := ParseLorawan([]byte(raw))
		if err != nil {
			return err
		}
		return up.Verify()
	default:
		return fmt.Errorf("unsupported data type %q", dt)
	}
}
