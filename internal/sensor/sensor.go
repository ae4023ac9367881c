// Package sensor is the entry point shared by every outer surface: it resolves a
// data type, generates a record for it and renders the record on the wire.
package sensor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saviobatista/sensor-sim/internal/adsb"
	"github.com/saviobatista/sensor-sim/internal/ais"
	"github.com/saviobatista/sensor-sim/internal/gps"
	"github.com/saviobatista/sensor-sim/internal/lorawan"
	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// ErrUnknownDataType is returned for data type names outside the four domains.
var ErrUnknownDataType = errors.New("unknown data type")

// Source tags frames produced by this package.
const Source = "sensor-sim"

// ParseDataType resolves "adsb", "ais", "gps" or "lorawan", ignoring case.
func ParseDataType(s string) (types.DataType, error) {
	for _, dt := range types.DataTypes {
		if strings.EqualFold(s, string(dt)) {
			return dt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDataType, s)
}

// Generate produces one record of the given type.
func Generate(src *random.Source, dt types.DataType) (types.Record, error) {
	switch dt {
	case types.DataTypeADSB:
		return types.FromAdsb(adsb.Generate(src)), nil
	case types.DataTypeAIS:
		return types.FromAis(ais.Generate(src)), nil
	case types.DataTypeGPS:
		return types.FromGps(gps.Generate(src)), nil
	case types.DataTypeLoRaWAN:
		return types.FromLorawan(lorawan.Generate(src)), nil
	default:
		return types.Record{}, fmt.Errorf("%w: %q", ErrUnknownDataType, dt)
	}
}

// Encode renders rec in its domain wire format. A record without a variant
// matching its discriminator encodes to the empty string.
func Encode(src *random.Source, rec types.Record) string {
	switch rec.DataType {
	case types.DataTypeADSB:
		if rec.Adsb != nil {
			return adsb.Encode(src, rec.Adsb)
		}
	case types.DataTypeAIS:
		if rec.Ais != nil {
			return ais.Encode(rec.Ais)
		}
	case types.DataTypeGPS:
		if rec.Gps != nil {
			return gps.Encode(rec.Gps)
		}
	case types.DataTypeLoRaWAN:
		if rec.Lorawan != nil {
			return lorawan.EncodeRaw(src, rec.Lorawan)
		}
	}
	return ""
}

// Frame generates a record of type dt and wraps its wire form for publishing.
func Frame(src *random.Source, dt types.DataType) (*types.Frame, error) {
	rec, err := Generate(src, dt)
	if err != nil {
		return nil, err
	}
	return NewFrame(src, rec), nil
}

// NewFrame wraps the wire form of rec.
func NewFrame(src *random.Source, rec types.Record) *types.Frame {
	return &types.Frame{
		ID:        uuid.New(),
		DataType:  rec.DataType,
		Raw:       Encode(src, rec),
		Timestamp: time.UnixMilli(rec.Timestamp).UTC(),
		Source:    Source,
	}
}
