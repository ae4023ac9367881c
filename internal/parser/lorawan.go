package parser

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/saviobatista/sensor-sim/internal/lorawan"
)

// LorawanUplink is a parsed LoRaWAN JSON uplink.
type LorawanUplink struct {
	lorawan.Uplink
	ReceivedAt   time.Time
	PayloadBytes []byte
	SensorType   lorawan.SensorType
}

// ParseLorawan decodes a JSON uplink and its hex payload.
func ParseLorawan(data []byte) (*LorawanUplink, error) {
	var up LorawanUplink
	if err := json.Unmarshal(data, &up.Uplink); err != nil {
		return nil, fmt.Errorf("%w: invalid uplink JSON: %v", ErrMalformed, err)
	}

	ts, err := time.Parse(lorawan.TimeLayout, up.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: uplink time %q", ErrMalformed, up.Time)
	}
	up.ReceivedAt = ts

	up.PayloadBytes, err = hex.DecodeString(up.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: uplink payload is not hex", ErrMalformed)
	}

	name, _ := up.DecodedPayload["sensorType"].(string)
	up.SensorType, err = lorawan.ParseSensorType(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &up, nil
}

// Verify re-decodes the payload and compares it with the decoded fields carried
// in the uplink.
func (u *LorawanUplink) Verify() error {
	want, err := json.Marshal(lorawan.Decode(u.PayloadBytes, u.SensorType))
	if err != nil {
		return err
	}
	got, err := json.Marshal(u.DecodedPayload)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("%w: decoded payload %s does not match payload %s", ErrChecksum, got, u.Payload)
	}
	return nil
}
