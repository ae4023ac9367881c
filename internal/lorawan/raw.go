package lorawan

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// TimeLayout is the uplink timestamp layout: RFC 3339 in UTC with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Decimal is a float rendered with exactly one decimal in JSON.
type Decimal float64

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(d), 'f', 1, 64)), nil
}

// Uplink is the network-server style JSON form of an uplink. Field order is the
// wire order.
type Uplink struct {
	Time            string         `json:"time"`
	Device          string         `json:"device"`
	DevAddr         string         `json:"devAddr"`
	AppEUI          string         `json:"appEui"`
	GatewayID       string         `json:"gatewayId"`
	FPort           int            `json:"fPort"`
	MessageType     string         `json:"messageType"`
	Counter         int            `json:"counter"`
	RSSI            Decimal        `json:"rssi"`
	SNR             Decimal        `json:"snr"`
	SpreadingFactor int            `json:"spreadingFactor"`
	Bandwidth       int            `json:"bandwidth"`
	CodingRate      string         `json:"codingRate"`
	Frequency       string         `json:"frequency"`
	FrequencyValue  Decimal        `json:"frequencyValue"`
	Payload         string         `json:"payload"`
	DecodedPayload  map[string]any `json:"decodedPayload"`
}

// NewUplink builds the JSON form of rec with a fresh random gateway id.
func NewUplink(src *random.Source, rec *types.LorawanData) Uplink {
	return Uplink{
		Time:            time.UnixMilli(rec.Timestamp).UTC().Format(TimeLayout),
		Device:          rec.DevEUI,
		DevAddr:         rec.DevAddr,
		AppEUI:          rec.AppEUI,
		GatewayID:       randomEUI(src).String(),
		FPort:           rec.FPort,
		MessageType:     MessageTypeName(rec.MessageType),
		Counter:         rec.Counter,
		RSSI:            Decimal(rec.RSSI),
		SNR:             Decimal(rec.SNR),
		SpreadingFactor: rec.SpreadingFactor,
		Bandwidth:       rec.Bandwidth,
		CodingRate:      CodingRateLabel(rec.CodingRate),
		Frequency:       rec.Frequency,
		FrequencyValue:  Decimal(rec.FrequencyValue),
		Payload:         strings.ToUpper(hex.EncodeToString(rec.Payload)),
		DecodedPayload:  rec.DecodedPayload,
	}
}

// EncodeRaw renders rec as a single-line JSON uplink.
func EncodeRaw(src *random.Source, rec *types.LorawanData) string {
	b, err := json.Marshal(NewUplink(src, rec))
	if err != nil {
		// Only strings, numbers and bools ever reach the decoded map.
		panic(fmt.Sprintf("lorawan: failed to marshal uplink: %v", err))
	}
	return string(b)
}
