// File: /models/ride_analytics.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

type SafetyEventType string

const (
	SafetyEventRedline          SafetyEventType = "redline"
	SafetyEventHardBraking      SafetyEventType = "hard_braking"
	SafetyEventHardAcceleration SafetyEventType = "hard_acceleration"
)

// SafetyEvent is a threshold crossing flagged on one sample of a ride.
// A ride's events are replaced as a whole every time the ride is aggregated.
type SafetyEvent struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	RideID      string          `json:"ride_id" gorm:"not null;size:191;index"`
	Timestamp   time.Time       `json:"timestamp" gorm:"not null"`
	EventType   SafetyEventType `json:"event_type" gorm:"not null;size:50"`
	Description string          `json:"description" gorm:"size:255"`
	Value       float64         `json:"value"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SafetyEventSnapshot is the copy of an event kept inside RideAnalytics.
type SafetyEventSnapshot struct {
	Timestamp   time.Time       `json:"timestamp"`
	EventType   SafetyEventType `json:"event_type"`
	Description string          `json:"description"`
	Value       float64         `json:"value"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
}

// RiskZone groups safety events that happened at roughly the same place.
type RiskZone struct {
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	EventCount int               `json:"event_count"`
	EventTypes []SafetyEventType `json:"event_types"`
}

// RideAnalytics is the derived report of a closed ride, one per ride.
type RideAnalytics struct {
	ID                       uint                                     `json:"id" gorm:"primaryKey"`
	RideID                   string                                   `json:"ride_id" gorm:"not null;size:191;uniqueIndex"`
	PerformanceScore         float64                                  `json:"performance_score"`
	EfficiencyScore          float64                                  `json:"efficiency_score"`
	SmoothnessScore          float64                                  `json:"smoothness_score"`
	AccelerationDistribution datatypes.JSONSlice[Bucket]              `json:"acceleration_distribution"`
	SpeedDistribution        datatypes.JSONSlice[Bucket]              `json:"speed_distribution"`
	RPMDistribution          datatypes.JSONSlice[Bucket]              `json:"rpm_distribution"`
	LeanAngleDistribution    datatypes.JSONSlice[Bucket]              `json:"lean_angle_distribution"`
	RiskZones                datatypes.JSONSlice[RiskZone]            `json:"risk_zones"`
	SafetyEvents             datatypes.JSONSlice[SafetyEventSnapshot] `json:"safety_events"`
	Recommendations          StringSlice                              `json:"recommendations"`
	CreatedAt                time.Time                                `json:"created_at"`
	UpdatedAt                time.Time                                `json:"updated_at"`
}

func (RideAnalytics) TableName() string {
	return "ride_analytics"
}
