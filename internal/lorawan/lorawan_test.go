package lorawan

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/types"
)

var (
	eui64Pattern   = regexp.MustCompile(`^[0-9a-f]{16}$`)
	devAddrPattern = regexp.MustCompile(`^[0-9a-f]{8}$`)
)

func TestGenerate_Ranges(t *testing.T) {
	src := random.New(41)
	seen := make(map[string]bool)

	for i := 0; i < 10000; i++ {
		rec := Generate(src)

		require.Equal(t, types.DataTypeLoRaWAN, rec.DataType)
		require.Regexp(t, eui64Pattern, rec.DevEUI)
		require.Regexp(t, eui64Pattern, rec.AppEUI)
		require.Regexp(t, devAddrPattern, rec.DevAddr)
		require.True(t, rec.FPort >= 1 && rec.FPort <= 223)
		require.True(t, rec.MessageType >= 0 && rec.MessageType <= 5)
		require.True(t, rec.Counter >= 0 && rec.Counter <= 65535)
		require.True(t, rec.RSSI >= -120 && rec.RSSI <= -41, "rssi %v", rec.RSSI)
		require.Equal(t, float64(int(rec.RSSI)), rec.RSSI)
		require.True(t, rec.SNR >= -20 && rec.SNR < 10)
		require.True(t, rec.SpreadingFactor >= 7 && rec.SpreadingFactor <= 12)
		require.Contains(t, bandwidths, rec.Bandwidth)
		require.True(t, rec.CodingRate >= 1 && rec.CodingRate <= 4)
		require.Contains(t, frequencyBands, rec.Frequency)
		require.Contains(t, frequencies, rec.FrequencyValue)

		st, err := ParseSensorType(rec.SensorType)
		require.NoError(t, err)
		require.Equal(t, Decode(rec.Payload, st), rec.DecodedPayload)
		seen[rec.SensorType] = true
	}

	assert.Len(t, seen, len(SensorTypes))
}

func TestGeneratePayload_Lengths(t *testing.T) {
	want := map[SensorType]int{
		TemperatureHumidity: 3,
		SoilMoisture:        3,
		AirQuality:          5,
		WaterLevel:          3,
		ParkingSensor:       2,
		DoorWindowSensor:    3,
		WasteBin:            3,
		AssetTracker:        6,
	}

	src := random.New(3)
	for st, n := range want {
		for i := 0; i < 500; i++ {
			p := GeneratePayload(src, st)
			require.Len(t, p, n, st.String())
		}
	}
}

func TestGeneratePayload_ByteRanges(t *testing.T) {
	src := random.New(12)
	for i := 0; i < 5000; i++ {
		th := GeneratePayload(src, TemperatureHumidity)
		require.True(t, int8(th[0]) >= -20 && int8(th[0]) <= 79)
		require.LessOrEqual(t, th[1], byte(253))
		require.LessOrEqual(t, th[2], byte(100))

		wb := GeneratePayload(src, WasteBin)
		require.True(t, int8(wb[1]) >= -20 && int8(wb[1]) <= 59)

		at := GeneratePayload(src, AssetTracker)
		require.LessOrEqual(t, at[5], byte(3))
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		st      SensorType
		payload []byte
		want    map[string]any
	}{
		{
			name:    "temperature humidity",
			st:      TemperatureHumidity,
			payload: []byte{0x16, 0x80, 0x37},
			want:    map[string]any{"temperature": "22.5", "humidity": 55, "unit": "°C", "sensorType": "TEMPERATURE_HUMIDITY"},
		},
		{
			name:    "negative temperature keeps fraction additive",
			st:      TemperatureHumidity,
			payload: []byte{0xFB, 0x80, 0x00},
			want:    map[string]any{"temperature": "-4.5", "humidity": 0, "unit": "°C", "sensorType": "TEMPERATURE_HUMIDITY"},
		},
		{
			name:    "soil moisture",
			st:      SoilMoisture,
			payload: []byte{42, 0xF6, 0x33},
			want:    map[string]any{"moisture": 42, "temperature": "-9.8", "unit": "°C", "sensorType": "SOIL_MOISTURE"},
		},
		{
			name:    "air quality",
			st:      AirQuality,
			payload: []byte{0x01, 0x02, 0x00, 0xFF, 100},
			want:    map[string]any{"pm25": 258, "pm10": 255, "co2": 2000, "unit": "μg/m³", "sensorType": "AIR_QUALITY"},
		},
		{
			name:    "water level",
			st:      WaterLevel,
			payload: []byte{0x03, 0xE8, 21},
			want:    map[string]any{"waterLevel": 1000, "temperature": 21, "unit": "cm", "sensorType": "WATER_LEVEL"},
		},
		{
			name:    "parking occupied",
			st:      ParkingSensor,
			payload: []byte{1, 88},
			want:    map[string]any{"occupied": true, "battery": 88, "sensorType": "PARKING_SENSOR"},
		},
		{
			name:    "door closed",
			st:      DoorWindowSensor,
			payload: []byte{0, 15, 200},
			want:    map[string]any{"open": false, "battery": 15, "count": 200, "sensorType": "DOOR_WINDOW_SENSOR"},
		},
		{
			name:    "waste bin positive temperature",
			st:      WasteBin,
			payload: []byte{75, 45, 60},
			want:    map[string]any{"fillLevel": 75, "temperature": 25, "battery": 60, "sensorType": "WASTE_BIN"},
		},
		{
			name:    "waste bin encoded negative",
			st:      WasteBin,
			payload: []byte{10, 0xF6, 90},
			want:    map[string]any{"fillLevel": 10, "temperature": 226, "battery": 90, "sensorType": "WASTE_BIN"},
		},
		{
			name:    "asset tracker extremes",
			st:      AssetTracker,
			payload: []byte{0x00, 0x00, 0xFF, 0xFF, 50, 1},
			want: map[string]any{
				"latitude": "-90.000000", "longitude": "180.000000",
				"battery": 50, "status": "moving", "sensorType": "ASSET_TRACKER",
			},
		},
		{
			name:    "asset tracker unknown status",
			st:      AssetTracker,
			payload: []byte{0xFF, 0xFF, 0x00, 0x00, 5, 9},
			want: map[string]any{
				"latitude": "90.000000", "longitude": "-180.000000",
				"battery": 5, "status": "", "sensorType": "ASSET_TRACKER",
			},
		},
		{
			name:    "short payload",
			st:      AirQuality,
			payload: []byte{1, 2, 3},
			want:    map[string]any{"sensorType": "AIR_QUALITY"},
		},
		{
			name:    "empty payload",
			st:      ParkingSensor,
			payload: nil,
			want:    map[string]any{"sensorType": "PARKING_SENSOR"},
		},
		{
			name:    "unknown sensor type",
			st:      SensorType(42),
			payload: []byte{0xde, 0xad, 0x01},
			want:    map[string]any{"rawData": "DEAD01", "sensorType": "SENSOR_TYPE_42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.payload, tt.st))
		})
	}
}

// parseDecimal reads back a decoded value rendered as a decimal string.
func parseDecimal(t *testing.T, v any) float64 {
	t.Helper()
	str, ok := v.(string)
	require.True(t, ok, "%v is not a string", v)
	f, err := strconv.ParseFloat(str, 64)
	require.NoError(t, err)
	return f
}

func TestDecode_RoundTrip(t *testing.T) {
	src := random.New(77)
	// Fraction bytes carry 1/256 steps and the output keeps one decimal.
	const tempDelta = 1.0/256 + 0.05

	for i := 0; i < 1000; i++ {
		whole, hundredths, humidity := src.Intn(100)-20, src.Intn(100), src.Intn(101)
		temp := float64(whole) + float64(hundredths)/100
		payload := []byte{byte(int8(whole)), byte(float64(hundredths) / 100 * 256), byte(humidity)}

		decoded := Decode(payload, TemperatureHumidity)
		require.InDelta(t, temp, parseDecimal(t, decoded["temperature"]), tempDelta)
		require.Equal(t, humidity, decoded["humidity"])
		require.Equal(t, "°C", decoded["unit"])
	}

	for i := 0; i < 1000; i++ {
		moisture, whole, hundredths := src.Intn(101), src.Intn(60)-10, src.Intn(100)
		temp := float64(whole) + float64(hundredths)/100
		payload := []byte{byte(moisture), byte(int8(whole)), byte(float64(hundredths) / 100 * 256)}

		decoded := Decode(payload, SoilMoisture)
		require.Equal(t, moisture, decoded["moisture"])
		require.InDelta(t, temp, parseDecimal(t, decoded["temperature"]), tempDelta)
	}

	for i := 0; i < 1000; i++ {
		pm25, pm10, co2Step := src.Intn(65536), src.Intn(65536), src.Intn(101)
		payload := []byte{byte(pm25 >> 8), byte(pm25), byte(pm10 >> 8), byte(pm10), byte(co2Step)}

		decoded := Decode(payload, AirQuality)
		require.Equal(t, pm25, decoded["pm25"])
		require.Equal(t, pm10, decoded["pm10"])
		require.Equal(t, 400+co2Step*16, decoded["co2"])
	}

	for i := 0; i < 1000; i++ {
		level, temp := src.Intn(65536), src.Intn(50)
		decoded := Decode([]byte{byte(level >> 8), byte(level), byte(temp)}, WaterLevel)
		require.Equal(t, level, decoded["waterLevel"])
		require.Equal(t, temp, decoded["temperature"])
		require.Equal(t, "cm", decoded["unit"])
	}

	for i := 0; i < 200; i++ {
		occupied, battery := src.Bool(), src.Intn(101)
		var flag byte
		if occupied {
			flag = 1
		}
		decoded := Decode([]byte{flag, byte(battery)}, ParkingSensor)
		require.Equal(t, occupied, decoded["occupied"])
		require.Equal(t, battery, decoded["battery"])

		count := src.Intn(256)
		decoded = Decode([]byte{flag, byte(battery), byte(count)}, DoorWindowSensor)
		require.Equal(t, occupied, decoded["open"])
		require.Equal(t, battery, decoded["battery"])
		require.Equal(t, count, decoded["count"])
	}

	for i := 0; i < 1000; i++ {
		fill, temp, battery := src.Intn(101), src.Intn(80)-20, src.Intn(101)
		decoded := Decode([]byte{byte(fill), byte(int8(temp)), byte(battery)}, WasteBin)
		require.Equal(t, fill, decoded["fillLevel"])
		require.Equal(t, battery, decoded["battery"])
		want := temp - 20
		if temp < 0 {
			want = temp + 256 - 20
		}
		require.Equal(t, want, decoded["temperature"])
	}

	for i := 0; i < 1000; i++ {
		rawLat, rawLon, battery, status := src.Intn(65536), src.Intn(65536), src.Intn(101), src.Intn(4)
		lat := float64(rawLat)/65535*180 - 90
		lon := float64(rawLon)/65535*360 - 180
		payload := []byte{byte(rawLat >> 8), byte(rawLat), byte(rawLon >> 8), byte(rawLon), byte(battery), byte(status)}

		decoded := Decode(payload, AssetTracker)
		require.InDelta(t, lat, parseDecimal(t, decoded["latitude"]), 1e-6)
		require.InDelta(t, lon, parseDecimal(t, decoded["longitude"]), 1e-6)
		require.Equal(t, battery, decoded["battery"])
		require.Equal(t, trackerStatus[status], decoded["status"])
	}

	for _, st := range SensorTypes {
		for i := 0; i < 100; i++ {
			require.Equal(t, st.String(), Decode(GeneratePayload(src, st), st)["sensorType"])
		}
	}
}

func TestParseSensorType(t *testing.T) {
	for _, st := range SensorTypes {
		got, err := ParseSensorType(strings.ToLower(st.String()))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseSensorType("THERMOSTAT")
	assert.Error(t, err)
}

func TestMessageTypeName(t *testing.T) {
	want := []string{
		"JoinRequest", "JoinAccept", "UnconfirmedDataUp",
		"UnconfirmedDataDown", "ConfirmedDataUp", "ConfirmedDataDown",
	}
	for n, name := range want {
		assert.Equal(t, name, MessageTypeName(n))
	}
	assert.Equal(t, "Unknown", MessageTypeName(6))
	assert.Equal(t, "Unknown", MessageTypeName(-1))
}

func TestEncodeRaw(t *testing.T) {
	rec := &types.LorawanData{
		Header: types.Header{
			Timestamp: time.Date(2024, 6, 1, 8, 30, 0, 123e6, time.UTC).UnixMilli(),
			DataType:  types.DataTypeLoRaWAN,
		},
		DevEUI:          "0011223344556677",
		DevAddr:         "26011bda",
		AppEUI:          "70b3d57ed0000001",
		FPort:           10,
		MessageType:     2,
		Counter:         513,
		RSSI:            -87,
		SNR:             7.3,
		SpreadingFactor: 9,
		Bandwidth:       125,
		CodingRate:      1,
		Frequency:       "EU868",
		FrequencyValue:  868.1,
		SensorType:      ParkingSensor.String(),
		Payload:         []byte{0x01, 0x5A},
		DecodedPayload:  Decode([]byte{0x01, 0x5A}, ParkingSensor),
	}

	out := EncodeRaw(random.New(1), rec)

	keys := []string{
		`"time":"2024-06-01T08:30:00.123Z"`,
		`"device":"0011223344556677"`,
		`"devAddr":"26011bda"`,
		`"appEui":"70b3d57ed0000001"`,
		`"gatewayId":"`,
		`"fPort":10`,
		`"messageType":"UnconfirmedDataUp"`,
		`"counter":513`,
		`"rssi":-87.0`,
		`"snr":7.3`,
		`"spreadingFactor":9`,
		`"bandwidth":125`,
		`"codingRate":"4/5"`,
		`"frequency":"EU868"`,
		`"frequencyValue":868.1`,
		`"payload":"015A"`,
		`"decodedPayload":{"battery":90,"occupied":true,"sensorType":"PARKING_SENSOR"}`,
	}
	last := -1
	for _, k := range keys {
		idx := strings.Index(out, k)
		require.Greater(t, idx, last, "%s out of order in %s", k, out)
		last = idx
	}

	var up Uplink
	require.NoError(t, json.Unmarshal([]byte(out), &up))
	assert.Regexp(t, eui64Pattern, up.GatewayID)
	assert.Equal(t, Decimal(-87), up.RSSI)
}

func TestEncodeRaw_GeneratedIsValidJSON(t *testing.T) {
	src := random.New(5)
	for i := 0; i < 500; i++ {
		out := EncodeRaw(src, Generate(src))
		require.NotContains(t, out, "\n")
		require.True(t, json.Valid([]byte(out)), out)
	}
}
