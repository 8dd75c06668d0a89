package repositories

import (
	"context"

	"gorm.io/gorm"
	"motocosmos-telemetry/models"
)

// MotorcycleRepository reads the catalog's motorcycle table.
type MotorcycleRepository struct {
	db *gorm.DB
}

func NewMotorcycleRepository(db *gorm.DB) *MotorcycleRepository {
	return &MotorcycleRepository{db: db}
}

func (r *MotorcycleRepository) FindMotorcycle(ctx context.Context, id string) (*models.Motorcycle, error) {
	var motorcycle models.Motorcycle
	if err := r.db.WithContext(ctx).First(&motorcycle, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &motorcycle, nil
}
