package services

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gorm.io/datatypes"
	"motocosmos-telemetry/config"
	"motocosmos-telemetry/models"
	"motocosmos-telemetry/utils"
)

// Histogram dividers for the analytics distributions.
var (
	speedDividers        = []float64{0, 30, 60, 90, 120, 150, math.Inf(1)}
	rpmDividers          = []float64{0, 3000, 6000, 9000, 11000, math.Inf(1)}
	accelerationDividers = []float64{math.Inf(-1), -5, -2, 2, 5, math.Inf(1)}
	leanAngleDividers    = []float64{0, 15, 30, 45, math.Inf(1)}
)

// riskZonePrecision groups events within roughly 100 m of each other.
const riskZonePrecision = 3

// smoothnessPenalty is the score lost per m/s² of mean acceleration change between samples.
const smoothnessPenalty = 10

// BuildRideAnalytics derives the analytics record of a ride from its aggregate,
// ordered samples and detected events.
func BuildRideAnalytics(agg RideAggregate, points []models.TelemetryPoint, events []models.SafetyEvent, th config.Thresholds) *models.RideAnalytics {
	speeds := make([]float64, len(points))
	rpms := make([]float64, len(points))
	accels := make([]float64, len(points))
	leans := make([]float64, len(points))
	for i, p := range points {
		speeds[i] = math.Max(0, p.Speed)
		rpms[i] = math.Max(0, p.RPM)
		accels[i] = p.Acceleration
		leans[i] = math.Abs(p.LeanAngle)
	}

	snapshots := make([]models.SafetyEventSnapshot, len(events))
	for i, e := range events {
		snapshots[i] = models.SafetyEventSnapshot{
			Timestamp:   e.Timestamp,
			EventType:   e.EventType,
			Description: e.Description,
			Value:       e.Value,
			Latitude:    e.Latitude,
			Longitude:   e.Longitude,
		}
	}

	smoothness := smoothnessScore(accels)

	return &models.RideAnalytics{
		PerformanceScore:         agg.PerformanceScore,
		EfficiencyScore:          efficiencyScore(rpms, th),
		SmoothnessScore:          smoothness,
		AccelerationDistribution: distribution(accels, accelerationDividers),
		SpeedDistribution:        distribution(speeds, speedDividers),
		RPMDistribution:          distribution(rpms, rpmDividers),
		LeanAngleDistribution:    distribution(leans, leanAngleDividers),
		RiskZones:                datatypes.JSONSlice[models.RiskZone](riskZones(events)),
		SafetyEvents:             datatypes.JSONSlice[models.SafetyEventSnapshot](snapshots),
		Recommendations:          recommendations(agg.Summary, smoothness),
	}
}

// efficiencyScore is the share of samples spent inside the efficient RPM band.
func efficiencyScore(rpms []float64, th config.Thresholds) float64 {
	if len(rpms) == 0 {
		return 0
	}
	inBand := 0
	for _, rpm := range rpms {
		if rpm >= th.EfficientRPMMin && rpm <= th.EfficientRPMMax {
			inBand++
		}
	}
	return clampScore(float64(inBand) / float64(len(rpms)) * 100)
}

// smoothnessScore penalizes the mean absolute change of acceleration between samples.
func smoothnessScore(accels []float64) float64 {
	if len(accels) < 2 {
		return 100
	}
	deltas := make([]float64, len(accels)-1)
	for i := 1; i < len(accels); i++ {
		deltas[i-1] = math.Abs(accels[i] - accels[i-1])
	}
	return clampScore(100 - smoothnessPenalty*stat.Mean(deltas, nil))
}

func distribution(values, dividers []float64) datatypes.JSONSlice[models.Bucket] {
	buckets := make(datatypes.JSONSlice[models.Bucket], len(dividers)-1)
	for i := range buckets {
		lower, upper := dividers[i], dividers[i+1]
		buckets[i] = models.Bucket{Label: bucketLabel(lower, upper)}
		if !math.IsInf(lower, 0) {
			buckets[i].Lower = float64Ptr(lower)
		}
		if !math.IsInf(upper, 0) {
			buckets[i].Upper = float64Ptr(upper)
		}
	}
	if len(values) == 0 {
		return buckets
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)
	for i, c := range counts {
		buckets[i].Count = int(c)
	}
	return buckets
}

func bucketLabel(lower, upper float64) string {
	switch {
	case math.IsInf(lower, -1):
		return fmt.Sprintf("<%g", upper)
	case math.IsInf(upper, 1):
		return fmt.Sprintf("%g+", lower)
	default:
		return fmt.Sprintf("%g to %g", lower, upper)
	}
}

func riskZones(events []models.SafetyEvent) []models.RiskZone {
	type zoneKey struct{ lat, lon float64 }
	index := map[zoneKey]int{}
	zones := []models.RiskZone{}

	for _, e := range events {
		key := zoneKey{
			lat: utils.RoundToDecimal(e.Latitude, riskZonePrecision),
			lon: utils.RoundToDecimal(e.Longitude, riskZonePrecision),
		}
		i, ok := index[key]
		if !ok {
			i = len(zones)
			index[key] = i
			zones = append(zones, models.RiskZone{Latitude: key.lat, Longitude: key.lon})
		}
		zones[i].EventCount++
		if !containsEventType(zones[i].EventTypes, e.EventType) {
			zones[i].EventTypes = append(zones[i].EventTypes, e.EventType)
		}
	}

	sort.SliceStable(zones, func(a, b int) bool {
		return zones[a].EventCount > zones[b].EventCount
	})
	return zones
}

func containsEventType(types []models.SafetyEventType, t models.SafetyEventType) bool {
	for _, existing := range types {
		if existing == t {
			return true
		}
	}
	return false
}

func recommendations(s models.RideSummary, smoothness float64) models.StringSlice {
	recs := models.StringSlice{}
	if s.HardBrakingCount > 0 {
		recs = append(recs, fmt.Sprintf("Detected %d hard braking events: increase following distance and brake progressively.", s.HardBrakingCount))
	}
	if s.HardAccelerationCount > 0 {
		recs = append(recs, fmt.Sprintf("Detected %d hard accelerations: roll on the throttle more gradually.", s.HardAccelerationCount))
	}
	if s.RedlineCount > 0 {
		recs = append(recs, "Engine reached the redline: shift up earlier to reduce engine wear.")
	}
	if s.SharpTurnCount > 0 {
		recs = append(recs, fmt.Sprintf("Took %d turns at high lean angles: check tyre condition and enter corners slower.", s.SharpTurnCount))
	}
	if smoothness < 60 {
		recs = append(recs, "Throttle and brake inputs were abrupt: aim for smoother transitions.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Smooth and safe ride, keep it up.")
	}
	return recs
}
