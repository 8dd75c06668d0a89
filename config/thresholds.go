package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Thresholds holds the fixed limits used to flag safety events and score a ride.
// Accelerations are in m/s², lean angles in degrees.
type Thresholds struct {
	RedlineRPM            float64 `json:"redline_rpm"`
	HardBrakingAccel      float64 `json:"hard_braking_accel"`
	HardAccelerationAccel float64 `json:"hard_acceleration_accel"`
	SharpTurnLeanAngle    float64 `json:"sharp_turn_lean_angle"`
	EfficientRPMMin       float64 `json:"efficient_rpm_min"`
	EfficientRPMMax       float64 `json:"efficient_rpm_max"`
}

// DefaultThresholds returns the limits applied to vehicles without a class profile.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RedlineRPM:            11000,
		HardBrakingAccel:      -5,
		HardAccelerationAccel: 5,
		SharpTurnLeanAngle:    45,
		EfficientRPMMin:       2000,
		EfficientRPMMax:       7000,
	}
}

// ThresholdProfiles resolves thresholds per vehicle class.
type ThresholdProfiles struct {
	Default Thresholds
	Classes map[string]Thresholds
}

func DefaultThresholdProfiles() ThresholdProfiles {
	return ThresholdProfiles{
		Default: DefaultThresholds(),
		Classes: map[string]Thresholds{},
	}
}

// ForClass returns the profile registered for class, or the default one.
func (p ThresholdProfiles) ForClass(class string) Thresholds {
	if t, ok := p.Classes[strings.ToLower(class)]; ok {
		return t
	}
	return p.Default
}

type thresholdsFile struct {
	Default json.RawMessage            `json:"default"`
	Classes map[string]json.RawMessage `json:"classes"`
}

// LoadThresholdProfiles reads a JSON profile file of the form
//
//	{"default": {...}, "classes": {"sport": {"redline_rpm": 14000}}}
//
// Fields omitted from a class keep the value of the default profile.
func LoadThresholdProfiles(path string) (ThresholdProfiles, error) {
	profiles := DefaultThresholdProfiles()
	if path == "" {
		return profiles, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return profiles, fmt.Errorf("thresholds file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return profiles, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	var file thresholdsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return profiles, fmt.Errorf("failed to parse thresholds file: %w", err)
	}

	if len(file.Default) > 0 {
		if err := json.Unmarshal(file.Default, &profiles.Default); err != nil {
			return profiles, fmt.Errorf("invalid default thresholds: %w", err)
		}
	}

	for class, raw := range file.Classes {
		t := profiles.Default
		if err := json.Unmarshal(raw, &t); err != nil {
			return profiles, fmt.Errorf("invalid thresholds for class %q: %w", class, err)
		}
		if err := t.Validate(); err != nil {
			return profiles, fmt.Errorf("class %q: %w", class, err)
		}
		profiles.Classes[strings.ToLower(class)] = t
	}

	if err := profiles.Default.Validate(); err != nil {
		return profiles, fmt.Errorf("default profile: %w", err)
	}

	return profiles, nil
}

// Validate rejects profiles whose limits cannot flag anything sensible.
func (t Thresholds) Validate() error {
	switch {
	case t.RedlineRPM <= 0:
		return fmt.Errorf("redline_rpm must be positive, got %v", t.RedlineRPM)
	case t.HardBrakingAccel >= 0:
		return fmt.Errorf("hard_braking_accel must be negative, got %v", t.HardBrakingAccel)
	case t.HardAccelerationAccel <= 0:
		return fmt.Errorf("hard_acceleration_accel must be positive, got %v", t.HardAccelerationAccel)
	case t.SharpTurnLeanAngle <= 0 || t.SharpTurnLeanAngle >= 90:
		return fmt.Errorf("sharp_turn_lean_angle must be within (0, 90), got %v", t.SharpTurnLeanAngle)
	case t.EfficientRPMMin >= t.EfficientRPMMax:
		return fmt.Errorf("efficient rpm band is empty: [%v, %v]", t.EfficientRPMMin, t.EfficientRPMMax)
	}
	return nil
}
