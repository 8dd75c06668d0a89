// File: /models/ride_session.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

type RideStatus string

const (
	RideStatusActive      RideStatus = "active"
	RideStatusCompleted   RideStatus = "completed"
	RideStatusCrashed     RideStatus = "crashed"
	RideStatusInterrupted RideStatus = "interrupted"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s RideStatus) IsTerminal() bool {
	switch s {
	case RideStatusCompleted, RideStatusCrashed, RideStatusInterrupted:
		return true
	default:
		return false
	}
}

// RideSession is one ride of a rider on a motorcycle, from start to end.
// RiderID and MotorcycleID are references owned by the user and catalog services.
type RideSession struct {
	ID           string     `json:"id" gorm:"primaryKey;size:191"`
	RiderID      string     `json:"rider_id" gorm:"not null;size:191;index:idx_ride_sessions_rider_status,priority:1"`
	MotorcycleID string     `json:"motorcycle_id" gorm:"not null;size:191;index"`
	VehicleClass string     `json:"vehicle_class" gorm:"size:50"`
	StartTime    time.Time  `json:"start_time" gorm:"not null"`
	EndTime      *time.Time `json:"end_time"`
	Status       RideStatus `json:"status" gorm:"not null;size:20;default:'active';index:idx_ride_sessions_rider_status,priority:2"`

	RideSummary `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Points       []TelemetryPoint `json:"-" gorm:"foreignKey:RideID;constraint:OnDelete:CASCADE"`
	Analytics    *RideAnalytics   `json:"-" gorm:"foreignKey:RideID;constraint:OnDelete:CASCADE"`
	SafetyEvents []SafetyEvent    `json:"-" gorm:"foreignKey:RideID;constraint:OnDelete:CASCADE"`
}

// RideSummary holds the figures computed when a ride is closed.
// Every field keeps its zero value while the ride is active.
type RideSummary struct {
	// Distance is in km and speeds in km/h. Lean angles are in degrees.
	// Accelerations are in m/s², with MaxDeceleration kept as a magnitude.
	TotalDistance         float64                         `json:"total_distance"`
	MaxSpeed              float64                         `json:"max_speed"`
	AvgSpeed              float64                         `json:"avg_speed"`
	MaxRPM                float64                         `json:"max_rpm"`
	AvgRPM                float64                         `json:"avg_rpm"`
	MaxLeanAngle          float64                         `json:"max_lean_angle"`
	MaxAcceleration       float64                         `json:"max_acceleration"`
	MaxDeceleration       float64                         `json:"max_deceleration"`
	StartLatitude         *float64                        `json:"start_latitude"`
	StartLongitude        *float64                        `json:"start_longitude"`
	EndLatitude           *float64                        `json:"end_latitude"`
	EndLongitude          *float64                        `json:"end_longitude"`
	RouteGeometry         datatypes.JSONSlice[Coordinate] `json:"route_geometry"`
	HardBrakingCount      int                             `json:"hard_braking_count" gorm:"default:0"`
	HardAccelerationCount int                             `json:"hard_acceleration_count" gorm:"default:0"`
	SharpTurnCount        int                             `json:"sharp_turn_count" gorm:"default:0"`
	RedlineCount          int                             `json:"redline_count" gorm:"default:0"`
	SafetyScore           float64                         `json:"safety_score" gorm:"default:0"`
}

// StartRideRequest for POST /rides/start
type StartRideRequest struct {
	MotorcycleID string     `json:"motorcycle_id" binding:"required"`
	StartTime    *time.Time `json:"start_time"`
}

// EndRideRequest for PUT /rides/:id/end
type EndRideRequest struct {
	EndTime *time.Time `json:"end_time"`
	Status  RideStatus `json:"status" binding:"omitempty,oneof=completed crashed"`
}
