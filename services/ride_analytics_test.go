package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"motocosmos-telemetry/config"
	"motocosmos-telemetry/models"
)

func TestDetectSafetyEvents(t *testing.T) {
	accels := []float64{-6, 0, 6}
	rpms := []float64{5000, 12000, 5000}
	points := samplePoints(3,
		func(i int) sampleOpt { return withAccel(accels[i]) },
		func(i int) sampleOpt { return withRPM(rpms[i]) },
	)

	events := DetectSafetyEvents("ride-1", points, config.DefaultThresholds())
	require.Len(t, events, 3)

	assert.Equal(t, models.SafetyEventHardBraking, events[0].EventType)
	assert.Equal(t, -6.0, events[0].Value)
	assert.True(t, events[0].Timestamp.Equal(points[0].Timestamp))

	assert.Equal(t, models.SafetyEventRedline, events[1].EventType)
	assert.Equal(t, 12000.0, events[1].Value)
	assert.Contains(t, events[1].Description, "12000 RPM")

	assert.Equal(t, models.SafetyEventHardAcceleration, events[2].EventType)
	for _, e := range events {
		assert.Equal(t, "ride-1", e.RideID)
		assert.Equal(t, 45.0, e.Latitude)
		assert.Equal(t, 7.0, e.Longitude)
	}
}

func TestDetectSafetyEventsOneSampleSeveralEvents(t *testing.T) {
	points := samplePoints(1,
		func(int) sampleOpt { return withAccel(-7) },
		func(int) sampleOpt { return withRPM(11500) },
	)

	events := DetectSafetyEvents("ride-1", points, config.DefaultThresholds())
	require.Len(t, events, 2)
	assert.Equal(t, models.SafetyEventRedline, events[0].EventType)
	assert.Equal(t, models.SafetyEventHardBraking, events[1].EventType)
}

func TestDetectSafetyEventsThresholdsAreStrict(t *testing.T) {
	points := samplePoints(2,
		func(i int) sampleOpt { return withAccel([]float64{-5, 5}[i]) },
		func(int) sampleOpt { return withRPM(11000) },
	)

	assert.Empty(t, DetectSafetyEvents("ride-1", points, config.DefaultThresholds()))
}

func TestBuildRideAnalyticsScores(t *testing.T) {
	accels := []float64{-6, 0, 6}
	rpms := []float64{5000, 12000, 5000}
	points := samplePoints(3,
		func(i int) sampleOpt { return withAccel(accels[i]) },
		func(i int) sampleOpt { return withRPM(rpms[i]) },
	)
	th := config.DefaultThresholds()
	agg := AggregateRide(points, th)
	events := DetectSafetyEvents("ride-1", points, th)

	analytics := BuildRideAnalytics(agg, points, events, th)

	assert.Equal(t, agg.PerformanceScore, analytics.PerformanceScore)
	assert.InDelta(t, 200.0/3, analytics.EfficiencyScore, 1e-9)
	assert.InDelta(t, 40.0, analytics.SmoothnessScore, 1e-9)
	assert.Len(t, analytics.SafetyEvents, 3)
	for _, score := range []float64{analytics.PerformanceScore, analytics.EfficiencyScore, analytics.SmoothnessScore} {
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestBuildRideAnalyticsDistributions(t *testing.T) {
	speeds := []float64{10, 40, 200}
	leans := []float64{-20, 5, 60}
	points := samplePoints(3,
		func(i int) sampleOpt { return withSpeed(speeds[i]) },
		func(i int) sampleOpt { return withLean(leans[i]) },
	)
	th := config.DefaultThresholds()

	analytics := BuildRideAnalytics(AggregateRide(points, th), points, nil, th)

	speed := analytics.SpeedDistribution
	require.Len(t, speed, 6)
	assert.Equal(t, []int{1, 1, 0, 0, 0, 1}, bucketCounts(speed))
	assert.Equal(t, "0 to 30", speed[0].Label)
	assert.Equal(t, "150+", speed[5].Label)
	assert.Nil(t, speed[5].Upper)
	assert.Equal(t, 3, models.TotalCount(speed))

	assert.Equal(t, []int{1, 1, 0, 1}, bucketCounts(analytics.LeanAngleDistribution))

	accel := analytics.AccelerationDistribution
	require.Len(t, accel, 5)
	assert.Equal(t, "<-5", accel[0].Label)
	assert.Nil(t, accel[0].Lower)
	assert.Equal(t, []int{0, 0, 3, 0, 0}, bucketCounts(accel))

	assert.Equal(t, []int{0, 3, 0, 0, 0}, bucketCounts(analytics.RPMDistribution))
}

func TestSmoothnessScore(t *testing.T) {
	assert.Equal(t, 100.0, smoothnessScore(nil))
	assert.Equal(t, 100.0, smoothnessScore([]float64{3}))
	assert.Equal(t, 100.0, smoothnessScore([]float64{1, 1, 1}))
	assert.Equal(t, 0.0, smoothnessScore([]float64{-20, 20}))
}

func TestRiskZonesGroupNearbyEvents(t *testing.T) {
	events := []models.SafetyEvent{
		{EventType: models.SafetyEventHardBraking, Latitude: 45.00011, Longitude: 7.00012},
		{EventType: models.SafetyEventRedline, Latitude: 46.5, Longitude: 8.2},
		{EventType: models.SafetyEventRedline, Latitude: 45.00024, Longitude: 7.00031},
		{EventType: models.SafetyEventHardBraking, Latitude: 44.99992, Longitude: 6.99989},
	}

	zones := riskZones(events)
	require.Len(t, zones, 2)

	assert.Equal(t, 45.0, zones[0].Latitude)
	assert.Equal(t, 7.0, zones[0].Longitude)
	assert.Equal(t, 3, zones[0].EventCount)
	assert.ElementsMatch(t, []models.SafetyEventType{models.SafetyEventHardBraking, models.SafetyEventRedline}, zones[0].EventTypes)

	assert.Equal(t, 1, zones[1].EventCount)
}

func TestRecommendations(t *testing.T) {
	recs := recommendations(models.RideSummary{}, 90)
	assert.Equal(t, models.StringSlice{"Smooth and safe ride, keep it up."}, recs)

	recs = recommendations(models.RideSummary{HardBrakingCount: 2, RedlineCount: 1}, 30)
	require.Len(t, recs, 3)
	assert.Contains(t, recs[0], "2 hard braking events")
}

func bucketCounts(d []models.Bucket) []int {
	counts := make([]int, len(d))
	for i, b := range d {
		counts[i] = b.Count
	}
	return counts
}
