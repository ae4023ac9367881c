package lorawan

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/saviobatista/sensor-sim/internal/random"
)

var trackerStatus = []string{"stationary", "moving", "alert", "error"}

// GeneratePayload builds the binary payload for st. Signed temperatures are
// stored as two's complement bytes.
func GeneratePayload(src *random.Source, st SensorType) []byte {
	switch st {
	case TemperatureHumidity:
		return []byte{
			byte(int8(src.Intn(100) - 20)),
			fraction(src),
			byte(src.Intn(101)),
		}
	case SoilMoisture:
		return []byte{
			byte(src.Intn(101)),
			byte(int8(src.Intn(60) - 10)),
			fraction(src),
		}
	case AirQuality:
		return []byte{
			byte(src.Intn(256)), byte(src.Intn(256)), // PM2.5
			byte(src.Intn(256)), byte(src.Intn(256)), // PM10
			byte(src.Intn(101)),
		}
	case WaterLevel:
		return []byte{byte(src.Intn(256)), byte(src.Intn(256)), byte(src.Intn(50))}
	case ParkingSensor:
		return []byte{byte(src.Intn(2)), byte(src.Intn(101))}
	case DoorWindowSensor:
		return []byte{byte(src.Intn(2)), byte(src.Intn(101)), byte(src.Intn(256))}
	case WasteBin:
		return []byte{
			byte(src.Intn(101)),
			byte(int8(src.Intn(80) - 20)),
			byte(src.Intn(101)),
		}
	case AssetTracker:
		return []byte{
			byte(src.Intn(256)), byte(src.Intn(256)), // latitude
			byte(src.Intn(256)), byte(src.Intn(256)), // longitude
			byte(src.Intn(101)),
			byte(src.Intn(4)),
		}
	default:
		return src.Bytes(3)
	}
}

// fraction is a hundredth step scaled to a byte, in [0,253].
func fraction(src *random.Source) byte {
	return byte(float64(src.Intn(100)) / 100.0 * 256)
}

// Decode turns a payload back into named fields for st. Payloads shorter than the
// layout of st yield only the sensorType entry.
func Decode(payload []byte, st SensorType) map[string]any {
	decoded := make(map[string]any)

	switch st {
	case TemperatureHumidity:
		if len(payload) >= 3 {
			decoded["temperature"] = celsius(payload[0], payload[1])
			decoded["humidity"] = int(payload[2])
			decoded["unit"] = "°C"
		}
	case SoilMoisture:
		if len(payload) >= 3 {
			decoded["moisture"] = int(payload[0])
			decoded["temperature"] = celsius(payload[1], payload[2])
			decoded["unit"] = "°C"
		}
	case AirQuality:
		if len(payload) >= 5 {
			decoded["pm25"] = be16(payload[0], payload[1])
			decoded["pm10"] = be16(payload[2], payload[3])
			decoded["co2"] = 400 + int(payload[4])*16
			decoded["unit"] = "μg/m³"
		}
	case WaterLevel:
		if len(payload) >= 3 {
			decoded["waterLevel"] = be16(payload[0], payload[1])
			decoded["temperature"] = int(payload[2])
			decoded["unit"] = "cm"
		}
	case ParkingSensor:
		if len(payload) >= 2 {
			decoded["occupied"] = payload[0] == 1
			decoded["battery"] = int(payload[1])
		}
	case DoorWindowSensor:
		if len(payload) >= 3 {
			decoded["open"] = payload[0] == 1
			decoded["battery"] = int(payload[1])
			decoded["count"] = int(payload[2])
		}
	case WasteBin:
		if len(payload) >= 3 {
			decoded["fillLevel"] = int(payload[0])
			// Reads the unsigned byte with a fixed offset, so encoded negatives
			// come back as 216..235.
			decoded["temperature"] = int(payload[1]) - 20
			decoded["battery"] = int(payload[2])
		}
	case AssetTracker:
		if len(payload) >= 6 {
			lat := float64(be16(payload[0], payload[1]))/65535.0*180.0 - 90.0
			lon := float64(be16(payload[2], payload[3]))/65535.0*360.0 - 180.0
			status := ""
			if int(payload[5]) < len(trackerStatus) {
				status = trackerStatus[payload[5]]
			}
			decoded["latitude"] = fmt.Sprintf("%.6f", lat)
			decoded["longitude"] = fmt.Sprintf("%.6f", lon)
			decoded["battery"] = int(payload[4])
			decoded["status"] = status
		}
	default:
		decoded["rawData"] = strings.ToUpper(hex.EncodeToString(payload))
	}

	decoded["sensorType"] = st.String()
	return decoded
}

// celsius combines a signed integer byte with a 1/256 fraction byte.
func celsius(whole, frac byte) string {
	return fmt.Sprintf("%.1f", float64(int8(whole))+float64(frac)/256.0)
}

func be16(hi, lo byte) int {
	return int(hi)<<8 | int(lo)
}
