// File: /jobs/stale_ride_job.go
package jobs

import (
	"context"
	"log/slog"
	"time"
)

// RideInterrupter closes rides that stopped reporting.
type RideInterrupter interface {
	InterruptStaleRides(ctx context.Context, cutoff time.Time) (int, error)
}

// StaleRideJob periodically marks abandoned active rides as interrupted
type StaleRideJob struct {
	rides    RideInterrupter
	staleFor time.Duration
	interval time.Duration
	now      func() time.Time
	ticker   *time.Ticker
	done     chan bool
}

// NewStaleRideJob creates a job closing rides idle for longer than staleFor
func NewStaleRideJob(rides RideInterrupter, staleFor, interval time.Duration) *StaleRideJob {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &StaleRideJob{
		rides:    rides,
		staleFor: staleFor,
		interval: interval,
		now:      time.Now,
		done:     make(chan bool),
	}
}

// Start begins the sweep. A non-positive staleFor disables the job.
func (j *StaleRideJob) Start() {
	if j.staleFor <= 0 {
		slog.Info("Stale ride job disabled", "stale_after", j.staleFor.String())
		return
	}
	j.ticker = time.NewTicker(j.interval)
	slog.Info("Stale ride job started", "stale_after", j.staleFor.String(), "interval", j.interval.String())

	go func() {
		// Run immediately on start
		j.sweep()

		for {
			select {
			case <-j.ticker.C:
				j.sweep()
			case <-j.done:
				slog.Info("Stale ride job stopped")
				return
			}
		}
	}()
}

// Stop stops the sweep
func (j *StaleRideJob) Stop() {
	if j.ticker == nil {
		return
	}
	j.ticker.Stop()
	j.ticker = nil
	j.done <- true
}

func (j *StaleRideJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	cutoff := j.now().Add(-j.staleFor)
	count, err := j.rides.InterruptStaleRides(ctx, cutoff)
	if err != nil {
		slog.Error("Error during stale ride sweep", "error", err, "interrupted", count)
		return
	}
	if count > 0 {
		slog.Info("Interrupted stale rides", "count", count, "cutoff", cutoff)
	}
}
