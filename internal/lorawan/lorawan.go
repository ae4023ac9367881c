// Package lorawan simulates LoRaWAN sensor uplinks. It generates device
// identifiers and radio parameters, builds sensor-specific binary payloads and
// decodes them back into key/value form.
package lorawan

import (
	"fmt"
	"strings"
	"time"

	"github.com/brocaar/lorawan"

	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// SensorType identifies the device behind an uplink and selects its payload layout.
type SensorType int

const (
	TemperatureHumidity SensorType = iota
	SoilMoisture
	AirQuality
	WaterLevel
	ParkingSensor
	DoorWindowSensor
	WasteBin
	AssetTracker
)

// SensorTypes lists every supported sensor type.
var SensorTypes = []SensorType{
	TemperatureHumidity, SoilMoisture, AirQuality, WaterLevel,
	ParkingSensor, DoorWindowSensor, WasteBin, AssetTracker,
}

var sensorTypeNames = map[SensorType]string{
	TemperatureHumidity: "TEMPERATURE_HUMIDITY",
	SoilMoisture:        "SOIL_MOISTURE",
	AirQuality:          "AIR_QUALITY",
	WaterLevel:          "WATER_LEVEL",
	ParkingSensor:       "PARKING_SENSOR",
	DoorWindowSensor:    "DOOR_WINDOW_SENSOR",
	WasteBin:            "WASTE_BIN",
	AssetTracker:        "ASSET_TRACKER",
}

func (s SensorType) String() string {
	if name, ok := sensorTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SENSOR_TYPE_%d", int(s))
}

// ParseSensorType resolves a sensor type name such as "WASTE_BIN".
func ParseSensorType(name string) (SensorType, error) {
	for st, n := range sensorTypeNames {
		if strings.EqualFold(n, name) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown sensor type %q", name)
}

var (
	frequencyBands = []string{"EU868", "US915", "AU915", "AS923", "KR920", "IN865"}
	bandwidths     = []int{125, 250, 500}

	// Channel centre frequencies in MHz: EU868, US915 and AS923 plans.
	frequencies = []float64{
		868.1, 868.3, 868.5, 867.1, 867.3, 867.5, 867.7, 867.9,
		902.3, 902.5, 902.7, 902.9, 903.1, 903.3, 903.5, 903.7,
		923.2, 923.4, 923.6, 923.8, 924.0, 924.2, 924.4, 924.6,
	}
)

// Generate returns a random uplink from a uniformly chosen sensor type.
func Generate(src *random.Source) *types.LorawanData {
	st := random.Pick(src, SensorTypes)
	payload := GeneratePayload(src, st)

	return &types.LorawanData{
		Header: types.Header{
			Timestamp: time.Now().UnixMilli(),
			DataType:  types.DataTypeLoRaWAN,
			Latitude:  src.Latitude(),
			Longitude: src.Longitude(),
		},
		DevEUI:          randomEUI(src).String(),
		DevAddr:         randomDevAddr(src).String(),
		AppEUI:          randomEUI(src).String(),
		FPort:           src.IntRange(1, 223),
		Confirmed:       src.Bool(),
		MessageType:     src.Intn(6),
		Counter:         src.Intn(65536),
		RSSI:            float64(-120 + src.Intn(80)),
		SNR:             src.Float64Range(-20, 10),
		SpreadingFactor: src.IntRange(7, 12),
		Bandwidth:       random.Pick(src, bandwidths),
		CodingRate:      src.IntRange(1, 4),
		Frequency:       random.Pick(src, frequencyBands),
		FrequencyValue:  random.Pick(src, frequencies),
		SensorType:      st.String(),
		Payload:         payload,
		DecodedPayload:  Decode(payload, st),
	}
}

// MessageTypeName returns the LoRaWAN MType name for n, or "Unknown" outside 0..5.
func MessageTypeName(n int) string {
	if n < 0 || n > int(lorawan.ConfirmedDataDown) {
		return "Unknown"
	}
	return lorawan.MType(n).String()
}

// CodingRateLabel renders a coding rate index as "4/(4+n)".
func CodingRateLabel(n int) string {
	return fmt.Sprintf("4/%d", 4+n)
}

func randomEUI(src *random.Source) lorawan.EUI64 {
	var eui lorawan.EUI64
	copy(eui[:], src.Bytes(len(eui)))
	return eui
}

func randomDevAddr(src *random.Source) lorawan.DevAddr {
	var addr lorawan.DevAddr
	copy(addr[:], src.Bytes(len(addr)))
	return addr
}
