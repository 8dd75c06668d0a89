package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"motocosmos-telemetry/models"
)

type RideRepository struct {
	db *gorm.DB
}

func NewRideRepository(db *gorm.DB) *RideRepository {
	return &RideRepository{db: db}
}

// Create inserts a new ride session
func (r *RideRepository) Create(ctx context.Context, ride *models.RideSession) error {
	return r.db.WithContext(ctx).Create(ride).Error
}

// FindByID retrieves a ride session by id
func (r *RideRepository) FindByID(ctx context.Context, id string) (*models.RideSession, error) {
	var ride models.RideSession
	if err := r.db.WithContext(ctx).First(&ride, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &ride, nil
}

// FindActiveByRider retrieves the rider's open ride, if any
func (r *RideRepository) FindActiveByRider(ctx context.Context, riderID string) (*models.RideSession, error) {
	var ride models.RideSession
	err := r.db.WithContext(ctx).
		Where("rider_id = ? AND status = ?", riderID, models.RideStatusActive).
		First(&ride).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &ride, nil
}

// ListByRider returns one page of a rider's rides, newest first, with the total count
func (r *RideRepository) ListByRider(ctx context.Context, riderID string, offset, limit int) ([]models.RideSession, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.RideSession{}).Where("rider_id = ?", riderID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rides := []models.RideSession{}
	err := r.db.WithContext(ctx).
		Where("rider_id = ?", riderID).
		Order("start_time DESC").
		Offset(offset).Limit(limit).
		Find(&rides).Error
	return rides, total, err
}

// ListActiveStartedBefore returns active rides started before cutoff
func (r *RideRepository) ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]models.RideSession, error) {
	rides := []models.RideSession{}
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time < ?", models.RideStatusActive, cutoff).
		Order("start_time ASC").
		Find(&rides).Error
	return rides, err
}

// CloseIfActive moves an active ride to a terminal status. It reports false when the
// ride was no longer active, so concurrent closes of the same ride apply only once.
func (r *RideRepository) CloseIfActive(ctx context.Context, id string, status models.RideStatus, endTime time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.RideSession{}).
		Where("id = ? AND status = ?", id, models.RideStatusActive).
		Updates(map[string]interface{}{
			"status":   status,
			"end_time": endTime,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SaveSummary overwrites the summary block of a ride
func (r *RideRepository) SaveSummary(ctx context.Context, id string, s models.RideSummary) error {
	return r.db.WithContext(ctx).Model(&models.RideSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_distance":          s.TotalDistance,
			"max_speed":               s.MaxSpeed,
			"avg_speed":               s.AvgSpeed,
			"max_rpm":                 s.MaxRPM,
			"avg_rpm":                 s.AvgRPM,
			"max_lean_angle":          s.MaxLeanAngle,
			"max_acceleration":        s.MaxAcceleration,
			"max_deceleration":        s.MaxDeceleration,
			"start_latitude":          s.StartLatitude,
			"start_longitude":         s.StartLongitude,
			"end_latitude":            s.EndLatitude,
			"end_longitude":           s.EndLongitude,
			"route_geometry":          s.RouteGeometry,
			"hard_braking_count":      s.HardBrakingCount,
			"hard_acceleration_count": s.HardAccelerationCount,
			"sharp_turn_count":        s.SharpTurnCount,
			"redline_count":           s.RedlineCount,
			"safety_score":            s.SafetyScore,
		}).Error
}

// ReplaceAnalytics drops the ride's analytics record and stores the given one.
// A nil record only clears the existing one.
func (r *RideRepository) ReplaceAnalytics(ctx context.Context, rideID string, analytics *models.RideAnalytics) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("ride_id = ?", rideID).Delete(&models.RideAnalytics{}).Error; err != nil {
		return err
	}
	if analytics == nil {
		return nil
	}
	analytics.ID = 0
	analytics.RideID = rideID
	return db.Create(analytics).Error
}

// FindAnalytics retrieves the analytics record of a ride
func (r *RideRepository) FindAnalytics(ctx context.Context, rideID string) (*models.RideAnalytics, error) {
	var analytics models.RideAnalytics
	if err := r.db.WithContext(ctx).First(&analytics, "ride_id = ?", rideID).Error; err != nil {
		return nil, translateError(err)
	}
	return &analytics, nil
}

// ReplaceSafetyEvents purges the ride's events and inserts the new set
func (r *RideRepository) ReplaceSafetyEvents(ctx context.Context, rideID string, events []models.SafetyEvent) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("ride_id = ?", rideID).Delete(&models.SafetyEvent{}).Error; err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		events[i].ID = 0
		events[i].RideID = rideID
	}
	return db.CreateInBatches(&events, insertBatchSize).Error
}

// ListSafetyEvents returns a ride's events in time order
func (r *RideRepository) ListSafetyEvents(ctx context.Context, rideID string) ([]models.SafetyEvent, error) {
	events := []models.SafetyEvent{}
	err := r.db.WithContext(ctx).
		Where("ride_id = ?", rideID).
		Order("timestamp ASC").Order("id ASC").
		Find(&events).Error
	return events, err
}
