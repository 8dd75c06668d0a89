package services

import (
	"fmt"

	"motocosmos-telemetry/config"
	"motocosmos-telemetry/models"
)

// DetectSafetyEvents flags every threshold crossing in an ordered sample sequence.
// Predicates are independent, so one sample can raise several events.
func DetectSafetyEvents(rideID string, points []models.TelemetryPoint, th config.Thresholds) []models.SafetyEvent {
	events := []models.SafetyEvent{}

	for _, p := range points {
		if p.RPM > th.RedlineRPM {
			events = append(events, newSafetyEvent(rideID, p, models.SafetyEventRedline, p.RPM,
				fmt.Sprintf("Engine at %.0f RPM exceeded the %.0f RPM redline", p.RPM, th.RedlineRPM)))
		}
		if p.Acceleration < th.HardBrakingAccel {
			events = append(events, newSafetyEvent(rideID, p, models.SafetyEventHardBraking, p.Acceleration,
				fmt.Sprintf("Hard braking at %.1f m/s² (limit %.1f m/s²)", p.Acceleration, th.HardBrakingAccel)))
		}
		if p.Acceleration > th.HardAccelerationAccel {
			events = append(events, newSafetyEvent(rideID, p, models.SafetyEventHardAcceleration, p.Acceleration,
				fmt.Sprintf("Hard acceleration at %.1f m/s² (limit %.1f m/s²)", p.Acceleration, th.HardAccelerationAccel)))
		}
	}

	return events
}

func newSafetyEvent(rideID string, p models.TelemetryPoint, eventType models.SafetyEventType, value float64, description string) models.SafetyEvent {
	return models.SafetyEvent{
		RideID:      rideID,
		Timestamp:   p.Timestamp,
		EventType:   eventType,
		Description: description,
		Value:       value,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
	}
}
