package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/hxshowcase/internal/logfields"
	"git.home.luguber.info/inful/hxshowcase/internal/metrics"
)

// resetTimeout bounds a single scheduled reset.
const resetTimeout = 10 * time.Second

// Resetter restores the seed data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Scheduler periodically resets the demo contacts so edits made by
// visitors do not accumulate.
type Scheduler struct {
	scheduler gocron.Scheduler
	store     Resetter
	recorder  metrics.Recorder
}

// NewScheduler creates a scheduler resetting store every interval.
func NewScheduler(store Resetter, interval time.Duration, rec metrics.Recorder) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("reset interval must be positive, got %s", interval)
	}
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	s := &Scheduler{scheduler: gs, store: store, recorder: metrics.OrNoop(rec)}

	if _, err := gs.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.reset),
		gocron.WithName("contacts-reset"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = gs.Shutdown()
		return nil, fmt.Errorf("failed to create contacts reset job: %w", err)
	}
	return s, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting contacts reset scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for a running reset.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping contacts reset scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) reset() {
	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()
	start := time.Now()
	if err := s.store.Reset(ctx); err != nil {
		slog.Error("Scheduled contacts reset failed", logfields.Error(err))
		return
	}
	s.recorder.IncContactsReset()
	slog.Debug("Contacts reset", logfields.Duration(time.Since(start)))
}
