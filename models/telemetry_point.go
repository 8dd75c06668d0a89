// File: /models/telemetry_point.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

// TelemetryPoint is one sample streamed from the motorcycle during a ride.
// Points are append-only; a ride's points are read back ordered by Timestamp, then ID.
type TelemetryPoint struct {
	ID                uint              `json:"id" gorm:"primaryKey"`
	RideID            string            `json:"ride_id" gorm:"not null;size:191;index:idx_telemetry_points_ride_ts,priority:1"`
	Timestamp         time.Time         `json:"timestamp" gorm:"not null;index:idx_telemetry_points_ride_ts,priority:2"`
	Latitude          float64           `json:"latitude" gorm:"not null"`
	Longitude         float64           `json:"longitude" gorm:"not null"`
	Altitude          float64           `json:"altitude"`     // in meters
	Speed             float64           `json:"speed"`        // in km/h
	Acceleration      float64           `json:"acceleration"` // in m/s², negative when braking
	Heading           float64           `json:"heading"`      // in degrees from north
	RPM               float64           `json:"rpm"`
	ThrottlePosition  float64           `json:"throttle_position"` // in percent
	BrakePressure     *float64          `json:"brake_pressure"`    // in bar
	LeanAngle         float64           `json:"lean_angle"`        // in degrees, negative to the left
	Gear              int               `json:"gear"`
	EngineTemperature *float64          `json:"engine_temperature"` // in °C
	OilTemperature    *float64          `json:"oil_temperature"`    // in °C
	OilPressure       *float64          `json:"oil_pressure"`       // in bar
	FuelLevel         *float64          `json:"fuel_level"`         // in percent
	RawData           datatypes.JSONMap `json:"raw_data"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Coordinate returns the point position.
func (p TelemetryPoint) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

// TelemetrySample is one sample as submitted by a client in an ingestion batch.
type TelemetrySample struct {
	Timestamp         *time.Time             `json:"timestamp" validate:"required"`
	Latitude          *float64               `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude         *float64               `json:"longitude" validate:"required,gte=-180,lte=180"`
	Altitude          float64                `json:"altitude" validate:"gte=-500,lte=9000"`
	Speed             float64                `json:"speed" validate:"gte=0,lte=500"`
	Acceleration      float64                `json:"acceleration" validate:"gte=-100,lte=100"`
	Heading           float64                `json:"heading" validate:"gte=0,lt=360"`
	RPM               float64                `json:"rpm" validate:"gte=0,lte=25000"`
	ThrottlePosition  float64                `json:"throttle_position" validate:"gte=0,lte=100"`
	BrakePressure     *float64               `json:"brake_pressure" validate:"omitempty,gte=0"`
	LeanAngle         float64                `json:"lean_angle" validate:"gte=-90,lte=90"`
	Gear              int                    `json:"gear" validate:"gte=0,lte=8"`
	EngineTemperature *float64               `json:"engine_temperature" validate:"omitempty,gte=-50,lte=200"`
	OilTemperature    *float64               `json:"oil_temperature" validate:"omitempty,gte=-50,lte=200"`
	OilPressure       *float64               `json:"oil_pressure" validate:"omitempty,gte=0"`
	FuelLevel         *float64               `json:"fuel_level" validate:"omitempty,gte=0,lte=100"`
	RawData           map[string]interface{} `json:"raw_data"`
}

// ToPoint converts a validated sample into a point of the given ride.
func (s TelemetrySample) ToPoint(rideID string) TelemetryPoint {
	point := TelemetryPoint{
		RideID:            rideID,
		Altitude:          s.Altitude,
		Speed:             s.Speed,
		Acceleration:      s.Acceleration,
		Heading:           s.Heading,
		RPM:               s.RPM,
		ThrottlePosition:  s.ThrottlePosition,
		BrakePressure:     s.BrakePressure,
		LeanAngle:         s.LeanAngle,
		Gear:              s.Gear,
		EngineTemperature: s.EngineTemperature,
		OilTemperature:    s.OilTemperature,
		OilPressure:       s.OilPressure,
		FuelLevel:         s.FuelLevel,
	}
	if s.Timestamp != nil {
		point.Timestamp = s.Timestamp.UTC()
	}
	if s.Latitude != nil {
		point.Latitude = *s.Latitude
	}
	if s.Longitude != nil {
		point.Longitude = *s.Longitude
	}
	if s.RawData != nil {
		point.RawData = datatypes.JSONMap(s.RawData)
	}
	return point
}

// IngestTelemetryRequest for POST /rides/:id/telemetry
type IngestTelemetryRequest struct {
	Samples []TelemetrySample `json:"samples"`
}

// IngestTelemetryResponse reports how many samples were stored.
type IngestTelemetryResponse struct {
	RideID        string `json:"ride_id"`
	AcceptedCount int    `json:"accepted_count"`
}
