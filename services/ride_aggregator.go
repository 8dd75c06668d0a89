package services

import (
	"math"

	"gorm.io/datatypes"
	"motocosmos-telemetry/config"
	"motocosmos-telemetry/models"
	"motocosmos-telemetry/utils"
)

// Safety score penalty per flagged occurrence.
const (
	hardBrakingPenalty      = 5
	hardAccelerationPenalty = 3
	sharpTurnPenalty        = 2
	redlinePenalty          = 5
)

// RideAggregate is the reduction of a ride's ordered samples.
type RideAggregate struct {
	Summary          models.RideSummary
	PerformanceScore float64
}

// AggregateRide reduces an ordered, non-empty sample sequence in one forward pass.
// Callers short-circuit rides without samples.
func AggregateRide(points []models.TelemetryPoint, th config.Thresholds) RideAggregate {
	var s models.RideSummary
	var sumSpeed, sumRPM float64
	var inSharp bool
	maxSpeed, maxRPM := math.Inf(-1), math.Inf(-1)
	route := make([]models.Coordinate, 0, len(points))

	for i, p := range points {
		if i > 0 {
			prev := points[i-1]
			s.TotalDistance += utils.HaversineKm(prev.Latitude, prev.Longitude, p.Latitude, p.Longitude)
		}
		route = append(route, p.Coordinate())

		maxSpeed = math.Max(maxSpeed, p.Speed)
		maxRPM = math.Max(maxRPM, p.RPM)
		sumSpeed += p.Speed
		sumRPM += p.RPM

		s.MaxLeanAngle = math.Max(s.MaxLeanAngle, math.Abs(p.LeanAngle))
		if p.Acceleration > 0 {
			s.MaxAcceleration = math.Max(s.MaxAcceleration, p.Acceleration)
		} else {
			s.MaxDeceleration = math.Max(s.MaxDeceleration, -p.Acceleration)
		}

		switch {
		case p.Acceleration < th.HardBrakingAccel:
			s.HardBrakingCount++
		case p.Acceleration > th.HardAccelerationAccel:
			s.HardAccelerationCount++
		}
		if p.RPM > th.RedlineRPM {
			s.RedlineCount++
		}

		sharp := math.Abs(p.LeanAngle) >= th.SharpTurnLeanAngle
		if sharp && !inSharp {
			s.SharpTurnCount++
		}
		inSharp = sharp
	}

	n := len(points)
	if n == 0 {
		return RideAggregate{Summary: s}
	}

	s.MaxSpeed = maxSpeed
	s.MaxRPM = maxRPM
	s.AvgSpeed = math.Min(sumSpeed/float64(n), maxSpeed)
	s.AvgRPM = math.Min(sumRPM/float64(n), maxRPM)

	first, last := points[0], points[n-1]
	s.StartLatitude, s.StartLongitude = float64Ptr(first.Latitude), float64Ptr(first.Longitude)
	s.EndLatitude, s.EndLongitude = float64Ptr(last.Latitude), float64Ptr(last.Longitude)
	s.RouteGeometry = datatypes.JSONSlice[models.Coordinate](route)
	s.SafetyScore = safetyScore(s)

	return RideAggregate{
		Summary:          s,
		PerformanceScore: performanceScore(s.AvgSpeed, s.MaxSpeed),
	}
}

func performanceScore(avgSpeed, maxSpeed float64) float64 {
	if maxSpeed <= 0 {
		return 0
	}
	return clampScore(avgSpeed / maxSpeed * 100)
}

func safetyScore(s models.RideSummary) float64 {
	penalty := hardBrakingPenalty*s.HardBrakingCount +
		hardAccelerationPenalty*s.HardAccelerationCount +
		sharpTurnPenalty*s.SharpTurnCount +
		redlinePenalty*s.RedlineCount
	return clampScore(100 - float64(penalty))
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func float64Ptr(v float64) *float64 {
	return &v
}

// zeroSummary is the summary persisted for a ride closed without samples.
func zeroSummary() models.RideSummary {
	return models.RideSummary{RouteGeometry: datatypes.JSONSlice[models.Coordinate]{}}
}
