package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Store groups the ride repositories over one database handle, so a unit of work
// can run them inside a single transaction.
type Store struct {
	db        *gorm.DB
	Rides     *RideRepository
	Telemetry *TelemetryRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Rides:     NewRideRepository(db),
		Telemetry: NewTelemetryRepository(db),
	}
}

// InTx runs fn with a Store bound to a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
