package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"motocosmos-telemetry/models"
)

const insertBatchSize = 500

// TelemetryRepository is the append-only point log of rides.
type TelemetryRepository struct {
	db *gorm.DB
}

func NewTelemetryRepository(db *gorm.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Append inserts points in the given order. Run it inside Store.InTx so a batch
// is written entirely or not at all.
func (r *TelemetryRepository) Append(ctx context.Context, points []models.TelemetryPoint) error {
	if len(points) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&points, insertBatchSize).Error
}

// AllOrdered returns every point of a ride by timestamp, ties in insertion order.
func (r *TelemetryRepository) AllOrdered(ctx context.Context, rideID string) ([]models.TelemetryPoint, error) {
	points := []models.TelemetryPoint{}
	err := r.db.WithContext(ctx).
		Where("ride_id = ?", rideID).
		Order("timestamp ASC").Order("id ASC").
		Find(&points).Error
	return points, err
}

// Count returns the number of points stored for a ride.
func (r *TelemetryRepository) Count(ctx context.Context, rideID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TelemetryPoint{}).
		Where("ride_id = ?", rideID).
		Count(&count).Error
	return count, err
}

// LastTimestamp returns the latest sample time of a ride, or nil when it has none.
func (r *TelemetryRepository) LastTimestamp(ctx context.Context, rideID string) (*time.Time, error) {
	var point models.TelemetryPoint
	err := r.db.WithContext(ctx).
		Select("timestamp").
		Where("ride_id = ?", rideID).
		Order("timestamp DESC").
		Limit(1).
		Find(&point).Error
	if err != nil {
		return nil, err
	}
	if point.Timestamp.IsZero() {
		return nil, nil
	}
	return &point.Timestamp, nil
}
