package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DataType discriminates the sensor domain of a record.
type DataType string

const (
	DataTypeADSB    DataType = "ADSB"
	DataTypeAIS     DataType = "AIS"
	DataTypeGPS     DataType = "GPS"
	DataTypeLoRaWAN DataType = "LORAWAN"
)

// DataTypes lists every supported domain in a stable order.
var DataTypes = []DataType{DataTypeADSB, DataTypeAIS, DataTypeGPS, DataTypeLoRaWAN}

// Subject returns the lowercase token used in NATS subjects, cache keys and URLs.
func (d DataType) Subject() string {
	return strings.ToLower(string(d))
}

// Header holds the fields shared by every record.
type Header struct {
	Timestamp int64    `json:"timestamp"` // milliseconds since epoch
	DataType  DataType `json:"dataType"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// AdsbData is one simulated ADS-B surveillance sample.
type AdsbData struct {
	Header
	ICAO         string  `json:"icao"`
	Altitude     float64 `json:"altitude"`     // feet
	GroundSpeed  float64 `json:"groundSpeed"`  // knots
	Track        float64 `json:"track"`        // degrees
	VerticalRate float64 `json:"verticalRate"` // feet per minute
	Squawk       string  `json:"squawk"`
	Alert        bool    `json:"alert"`
	Emergency    bool    `json:"emergency"`
	SPI          bool    `json:"spi"`
	OnGround     bool    `json:"onGround"`
}

// AisData is one simulated AIS vessel report.
type AisData struct {
	Header
	MMSI                 int     `json:"mmsi"`
	VesselName           string  `json:"vesselName"`
	CallSign             string  `json:"callSign"`
	IMO                  int     `json:"imo"`
	SpeedOverGround      float64 `json:"speedOverGround"`  // knots
	CourseOverGround     float64 `json:"courseOverGround"` // degrees
	Heading              float64 `json:"heading"`          // degrees
	NavigationalStatus   int     `json:"navigationalStatus"`
	ShipType             int     `json:"shipType"`
	Draught              float64 `json:"draught"` // meters
	Destination          string  `json:"destination"`
	MessageType          int     `json:"messageType"`
	PositionAccuracy     bool    `json:"positionAccuracy"`
	RAIMFlag             int     `json:"raimFlag"`
	TimeStamp            int     `json:"timeStamp"` // UTC second of the report
	ManeuverIndicator    int     `json:"maneuverIndicator"`
	ETA                  string  `json:"eta"` // MM-DD HH:MM
	DimensionToBow       float64 `json:"dimensionToBow"`
	DimensionToStern     float64 `json:"dimensionToStern"`
	DimensionToPort      float64 `json:"dimensionToPort"`
	DimensionToStarboard float64 `json:"dimensionToStarboard"`
	RateOfTurn           float64 `json:"rateOfTurn"` // degrees per minute
}

// GpsData is one simulated GPS fix.
type GpsData struct {
	Header
	Altitude          float64 `json:"altitude"` // meters
	Speed             float64 `json:"speed"`    // knots
	Course            float64 `json:"course"`   // degrees
	Satellites        int     `json:"satellites"`
	FixQuality        int     `json:"fixQuality"` // 0 invalid, 1 GPS, 2 DGPS
	HDOP              float64 `json:"hdop"`
	GeoidHeight       float64 `json:"geoidHeight"`
	MagneticVariation float64 `json:"magneticVariation"`
}

// LorawanData is one simulated LoRaWAN uplink.
type LorawanData struct {
	Header
	DevEUI          string         `json:"devEui"`
	DevAddr         string         `json:"devAddr"`
	AppEUI          string         `json:"appEui"`
	FPort           int            `json:"fPort"`
	Confirmed       bool           `json:"confirmed"`
	MessageType     int            `json:"messageType"`
	Counter         int            `json:"counter"`
	RSSI            float64        `json:"rssi"` // dBm
	SNR             float64        `json:"snr"`  // dB
	SpreadingFactor int            `json:"spreadingFactor"`
	Bandwidth       int            `json:"bandwidth"`  // kHz
	CodingRate      int            `json:"codingRate"` // n in 4/(4+n)
	Frequency       string         `json:"frequency"`
	FrequencyValue  float64        `json:"frequencyValue"` // MHz
	SensorType      string         `json:"sensorType"`
	Payload         []byte         `json:"payload"`
	DecodedPayload  map[string]any `json:"decodedPayload"`
}

// Record is a closed union over the four domains. Exactly one variant pointer is
// set and it matches Header.DataType.
type Record struct {
	Header
	Adsb    *AdsbData    `json:"-"`
	Ais     *AisData     `json:"-"`
	Gps     *GpsData     `json:"-"`
	Lorawan *LorawanData `json:"-"`
}

// FromAdsb wraps an ADS-B sample.
func FromAdsb(d *AdsbData) Record { return Record{Header: d.Header, Adsb: d} }

// FromAis wraps an AIS sample.
func FromAis(d *AisData) Record { return Record{Header: d.Header, Ais: d} }

// FromGps wraps a GPS sample.
func FromGps(d *GpsData) Record { return Record{Header: d.Header, Gps: d} }

// FromLorawan wraps a LoRaWAN sample.
func FromLorawan(d *LorawanData) Record { return Record{Header: d.Header, Lorawan: d} }

// Value returns the variant selected by the discriminator, for JSON rendering.
func (r Record) Value() (any, error) {
	switch r.DataType {
	case DataTypeADSB:
		if r.Adsb != nil {
			return r.Adsb, nil
		}
	case DataTypeAIS:
		if r.Ais != nil {
			return r.Ais, nil
		}
	case DataTypeGPS:
		if r.Gps != nil {
			return r.Gps, nil
		}
	case DataTypeLoRaWAN:
		if r.Lorawan != nil {
			return r.Lorawan, nil
		}
	default:
		return nil, fmt.Errorf("unknown data type %q", r.DataType)
	}
	return nil, fmt.Errorf("record of type %s has no matching variant", r.DataType)
}

// Frame is an encoded wire message ready to be published.
type Frame struct {
	ID        uuid.UUID `json:"id"`
	DataType  DataType  `json:"data_type"`
	Raw       string    `json:"raw"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Lines splits a multi-sentence frame into its individual lines.
func (f *Frame) Lines() []string {
	return strings.Split(f.Raw, "\n")
}
