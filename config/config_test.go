package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DatabaseDriver)
	assert.Equal(t, 1000, cfg.Telemetry.MaxBatchSize)
	assert.Equal(t, LateSamplesAccept, cfg.Telemetry.LateSamplePolicy)
	assert.Equal(t, 6*time.Hour, cfg.Telemetry.StaleRideAfter)
	assert.Equal(t, 15*time.Minute, cfg.Telemetry.StaleRideSweepInterval)
	assert.False(t, cfg.RideReportEmails)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("TELEMETRY_MAX_BATCH_SIZE", "50")
	t.Setenv("TELEMETRY_LATE_SAMPLE_POLICY", "reaggregate")
	t.Setenv("STALE_RIDE_AFTER", "90m")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 50, cfg.Telemetry.MaxBatchSize)
	assert.Equal(t, LateSamplesReaggregate, cfg.Telemetry.LateSamplePolicy)
	assert.Equal(t, 90*time.Minute, cfg.Telemetry.StaleRideAfter)
}

func TestParseLateSamplePolicy(t *testing.T) {
	tests := map[string]LateSamplePolicy{
		"":            LateSamplesAccept,
		"accept":      LateSamplesAccept,
		" REJECT ":    LateSamplesReject,
		"reaggregate": LateSamplesReaggregate,
		"drop":        LateSamplesAccept,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLateSamplePolicy(in), "input %q", in)
	}
}

func TestLoadThresholdProfilesEmptyPath(t *testing.T) {
	profiles, err := LoadThresholdProfiles("")
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), profiles.Default)
	assert.Equal(t, DefaultThresholds(), profiles.ForClass("sport"))
}

func TestLoadThresholdProfilesClassOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	content := `{
		"default": {"redline_rpm": 10500},
		"classes": {
			"Sport": {"redline_rpm": 14000, "hard_braking_accel": -7},
			"scooter": {"redline_rpm": 8000, "efficient_rpm_max": 6000}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	profiles, err := LoadThresholdProfiles(path)
	require.NoError(t, err)

	assert.Equal(t, 10500.0, profiles.Default.RedlineRPM)
	assert.Equal(t, -5.0, profiles.Default.HardBrakingAccel)

	sport := profiles.ForClass("sport")
	assert.Equal(t, 14000.0, sport.RedlineRPM)
	assert.Equal(t, -7.0, sport.HardBrakingAccel)
	assert.Equal(t, 5.0, sport.HardAccelerationAccel)

	scooter := profiles.ForClass("SCOOTER")
	assert.Equal(t, 8000.0, scooter.RedlineRPM)
	assert.Equal(t, 6000.0, scooter.EfficientRPMMax)

	assert.Equal(t, profiles.Default, profiles.ForClass("touring"))
}

func TestLoadThresholdProfilesRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadThresholdProfiles(filepath.Join(dir, "thresholds.yaml"))
	assert.Error(t, err)

	_, err = LoadThresholdProfiles(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"classes": {"sport": {"hard_braking_accel": 3}}}`), 0o600))
	_, err = LoadThresholdProfiles(invalid)
	assert.ErrorContains(t, err, "hard_braking_accel")
}
