// File: /services/ride_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"motocosmos-telemetry/config"
	"motocosmos-telemetry/models"
	"motocosmos-telemetry/repositories"
)

// VehicleLookup resolves motorcycle references owned by the catalog.
type VehicleLookup interface {
	FindMotorcycle(ctx context.Context, id string) (*models.Motorcycle, error)
}

// RideNotifier is told about rides once their results are committed.
type RideNotifier interface {
	RideClosed(ctx context.Context, ride *models.RideSession, analytics *models.RideAnalytics) error
}

type RideServiceOptions struct {
	Profiles         config.ThresholdProfiles
	MaxBatchSize     int
	LateSamplePolicy config.LateSamplePolicy
	Notifier         RideNotifier
	Now              func() time.Time
}

// RideService owns the ride lifecycle: start, sample ingestion, close and the
// end-of-ride computation.
type RideService struct {
	store    *repositories.Store
	vehicles VehicleLookup
	opts     RideServiceOptions
	validate *validator.Validate
}

func NewRideService(store *repositories.Store, vehicles VehicleLookup, opts RideServiceOptions) *RideService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 1000
	}
	if opts.LateSamplePolicy == "" {
		opts.LateSamplePolicy = config.LateSamplesAccept
	}
	if opts.Profiles.Default == (config.Thresholds{}) {
		opts.Profiles.Default = config.DefaultThresholds()
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RideService{
		store:    store,
		vehicles: vehicles,
		opts:     opts,
		validate: validate,
	}
}

// MaxBatchSize is the largest number of samples one ingestion call accepts.
func (s *RideService) MaxBatchSize() int {
	return s.opts.MaxBatchSize
}

// StartRide opens a new active ride for the rider on one of their motorcycles
func (s *RideService) StartRide(ctx context.Context, riderID, motorcycleID string, startTime *time.Time) (*models.RideSession, error) {
	motorcycle, err := s.vehicles.FindMotorcycle(ctx, motorcycleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "motorcycle", ID: motorcycleID}
		}
		return nil, fmt.Errorf("failed to look up motorcycle: %w", err)
	}
	if motorcycle.UserID != riderID {
		return nil, &NotFoundError{Resource: "motorcycle", ID: motorcycleID}
	}

	active, err := s.store.Rides.FindActiveByRider(ctx, riderID)
	if err == nil {
		return nil, &ConflictError{Resource: "ride", ID: active.ID, Reason: "rider already has an active ride"}
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active rides: %w", err)
	}

	start := s.opts.Now()
	if startTime != nil {
		start = *startTime
	}

	ride := &models.RideSession{
		ID:           uuid.New().String(),
		RiderID:      riderID,
		MotorcycleID: motorcycleID,
		VehicleClass: motorcycle.Class,
		StartTime:    start.UTC(),
		Status:       models.RideStatusActive,
	}
	if err := s.store.Rides.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to start ride: %w", err)
	}

	slog.Info("Ride started", "ride_id", ride.ID, "rider_id", riderID, "motorcycle_id", motorcycleID)
	return ride, nil
}

// IngestSamples validates a batch and appends it to the ride's point log as one unit.
// Rides that are no longer active are handled according to the late sample policy.
func (s *RideService) IngestSamples(ctx context.Context, rideID, riderID string, samples []models.TelemetrySample) (int, error) {
	ride, err := s.ownedRide(ctx, rideID, riderID)
	if err != nil {
		return 0, err
	}

	if ride.Status.IsTerminal() && s.opts.LateSamplePolicy == config.LateSamplesReject {
		return 0, &ConflictError{Resource: "ride", ID: rideID, Reason: fmt.Sprintf("ride is %s", ride.Status)}
	}

	if err := s.validateBatch(samples); err != nil {
		return 0, err
	}

	points := make([]models.TelemetryPoint, len(samples))
	for i, sample := range samples {
		points[i] = sample.ToPoint(rideID)
	}

	reaggregate := ride.Status.IsTerminal() && s.opts.LateSamplePolicy == config.LateSamplesReaggregate

	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		if err := tx.Telemetry.Append(ctx, points); err != nil {
			return fmt.Errorf("failed to store samples: %w", err)
		}
		if reaggregate {
			if _, err := s.aggregate(ctx, tx, ride); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if ride.Status.IsTerminal() {
		slog.Warn("Samples ingested after ride end", "ride_id", rideID, "status", ride.Status,
			"count", len(points), "reaggregated", reaggregate)
	}
	return len(points), nil
}

func (s *RideService) validateBatch(samples []models.TelemetrySample) error {
	if len(samples) == 0 {
		return &ValidationError{Index: -1, Field: "samples", Reason: "at least one sample is required"}
	}
	if len(samples) > s.opts.MaxBatchSize {
		return &ValidationError{
			Index:  -1,
			Field:  "samples",
			Reason: fmt.Sprintf("batch of %d samples exceeds the maximum of %d", len(samples), s.opts.MaxBatchSize),
		}
	}

	for i := range samples {
		if err := s.validate.Struct(samples[i]); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				fe := fieldErrs[0]
				return &ValidationError{Index: i, Field: fe.Field(), Reason: describeFieldError(fe)}
			}
			return &ValidationError{Index: i, Field: "sample", Reason: err.Error()}
		}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "gt":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte", "lt":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// EndRide closes an active ride and computes its results in a single transaction.
// status defaults to completed; crashed is the other rider-reported outcome.
func (s *RideService) EndRide(ctx context.Context, rideID, riderID string, endTime *time.Time, status models.RideStatus) (*models.RideSession, error) {
	if status == "" {
		status = models.RideStatusCompleted
	}
	if status != models.RideStatusCompleted && status != models.RideStatusCrashed {
		return nil, &ValidationError{Index: -1, Field: "status", Reason: fmt.Sprintf("cannot end a ride as %q", status)}
	}

	ride, err := s.store.Rides.FindByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "ride", ID: rideID}
		}
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	if ride.RiderID != riderID {
		return nil, &NotFoundError{Resource: "ride", ID: rideID}
	}
	if ride.Status != models.RideStatusActive {
		return nil, &ConflictError{Resource: "ride", ID: rideID, Reason: fmt.Sprintf("ride is already %s", ride.Status)}
	}

	end := s.opts.Now()
	if endTime != nil {
		end = *endTime
	}

	return s.closeRide(ctx, ride, status, end.UTC())
}

// closeRide performs the active → terminal transition and the end-of-ride computation.
func (s *RideService) closeRide(ctx context.Context, ride *models.RideSession, status models.RideStatus, end time.Time) (*models.RideSession, error) {
	var analytics *models.RideAnalytics

	err := s.store.InTx(ctx, func(tx *repositories.Store) error {
		closed, err := tx.Rides.CloseIfActive(ctx, ride.ID, status, end)
		if err != nil {
			return fmt.Errorf("failed to close ride: %w", err)
		}
		if !closed {
			return &ConflictError{Resource: "ride", ID: ride.ID, Reason: "ride is no longer active"}
		}

		analytics, err = s.aggregate(ctx, tx, ride)
		return err
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Rides.FindByID(ctx, ride.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload ride: %w", err)
	}

	slog.Info("Ride closed", "ride_id", updated.ID, "status", updated.Status,
		"distance_km", updated.TotalDistance, "safety_score", updated.SafetyScore)

	if s.opts.Notifier != nil {
		if err := s.opts.Notifier.RideClosed(ctx, updated, analytics); err != nil {
			slog.Error("Failed to send ride notification", "ride_id", updated.ID, "error", err)
		}
	}

	return updated, nil
}

// aggregate recomputes summary, analytics and safety events of a ride from all of its
// samples, replacing whatever was stored before. It returns nil analytics for rides
// without samples.
func (s *RideService) aggregate(ctx context.Context, tx *repositories.Store, ride *models.RideSession) (*models.RideAnalytics, error) {
	points, err := tx.Telemetry.AllOrdered(ctx, ride.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	summary := zeroSummary()
	var analytics *models.RideAnalytics
	var events []models.SafetyEvent

	if len(points) > 0 {
		th := s.opts.Profiles.ForClass(ride.VehicleClass)
		agg := AggregateRide(points, th)
		events = DetectSafetyEvents(ride.ID, points, th)
		analytics = BuildRideAnalytics(agg, points, events, th)
		summary = agg.Summary
	}

	if err := tx.Rides.SaveSummary(ctx, ride.ID, summary); err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}
	if err := tx.Rides.ReplaceAnalytics(ctx, ride.ID, analytics); err != nil {
		return nil, fmt.Errorf("failed to save analytics: %w", err)
	}
	if err := tx.Rides.ReplaceSafetyEvents(ctx, ride.ID, events); err != nil {
		return nil, fmt.Errorf("failed to save safety events: %w", err)
	}

	return analytics, nil
}

// RecomputeRide reruns the end-of-ride computation of a closed ride.
func (s *RideService) RecomputeRide(ctx context.Context, rideID string) (*models.RideSession, error) {
	ride, err := s.store.Rides.FindByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "ride", ID: rideID}
		}
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	if !ride.Status.IsTerminal() {
		return nil, &ConflictError{Resource: "ride", ID: rideID, Reason: "ride is still active"}
	}

	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		_, err := s.aggregate(ctx, tx, ride)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.store.Rides.FindByID(ctx, rideID)
}

// InterruptStaleRides closes active rides with no activity since cutoff as interrupted.
// The end time is the last sample, or the start time for rides without samples.
func (s *RideService) InterruptStaleRides(ctx context.Context, cutoff time.Time) (int, error) {
	cutoff = cutoff.UTC()
	candidates, err := s.store.Rides.ListActiveStartedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list active rides: %w", err)
	}

	interrupted := 0
	for i := range candidates {
		ride := &candidates[i]

		lastActivity := ride.StartTime
		last, err := s.store.Telemetry.LastTimestamp(ctx, ride.ID)
		if err != nil {
			return interrupted, fmt.Errorf("failed to read last sample of ride %s: %w", ride.ID, err)
		}
		if last != nil && last.After(lastActivity) {
			lastActivity = *last
		}
		if !lastActivity.Before(cutoff) {
			continue
		}

		if _, err := s.closeRide(ctx, ride, models.RideStatusInterrupted, lastActivity.UTC()); err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				// closed by its rider in the meantime
				continue
			}
			return interrupted, err
		}
		interrupted++
	}

	return interrupted, nil
}

// GetRide returns one of the rider's rides
func (s *RideService) GetRide(ctx context.Context, rideID, riderID string) (*models.RideSession, error) {
	return s.ownedRide(ctx, rideID, riderID)
}

// ListRides returns a page of the rider's rides, newest first
func (s *RideService) ListRides(ctx context.Context, riderID string, page, limit int) ([]models.RideSession, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	rides, total, err := s.store.Rides.ListByRider(ctx, riderID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}
	return rides, total, nil
}

// GetRidePoints returns the ride's samples ordered by timestamp
func (s *RideService) GetRidePoints(ctx context.Context, rideID, riderID string) ([]models.TelemetryPoint, error) {
	if _, err := s.ownedRide(ctx, rideID, riderID); err != nil {
		return nil, err
	}
	points, err := s.store.Telemetry.AllOrdered(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}
	return points, nil
}

// GetRideSummary returns the analytics of a closed ride
func (s *RideService) GetRideSummary(ctx context.Context, rideID, riderID string) (*models.RideAnalytics, error) {
	if _, err := s.ownedRide(ctx, rideID, riderID); err != nil {
		return nil, err
	}
	analytics, err := s.store.Rides.FindAnalytics(ctx, rideID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "ride analytics", ID: rideID}
		}
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}
	return analytics, nil
}

// ListSafetyEvents returns the ride's safety events in time order
func (s *RideService) ListSafetyEvents(ctx context.Context, rideID, riderID string) ([]models.SafetyEvent, error) {
	if _, err := s.ownedRide(ctx, rideID, riderID); err != nil {
		return nil, err
	}
	events, err := s.store.Rides.ListSafetyEvents(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("failed to load safety events: %w", err)
	}
	return events, nil
}

func (s *RideService) ownedRide(ctx context.Context, rideID, riderID string) (*models.RideSession, error) {
	ride, err := s.store.Rides.FindByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "ride", ID: rideID}
		}
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	if ride.RiderID != riderID {
		return nil, &ForbiddenError{Resource: "ride", ID: rideID}
	}
	return ride, nil
}
