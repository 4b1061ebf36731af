// Package scheduler drives per-source collection on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
	apperrors "github.com/Thulrus/ParallaxIndex/internal/errors"
	"github.com/Thulrus/ParallaxIndex/internal/metrics"
)

// Scheduler owns one cron job per enabled source. All mutations go through
// Schedule/Unschedule so a source never has more than one active entry.
type Scheduler struct {
	cron   *cron.Cron
	runner domain.CycleRunner

	mu      sync.Mutex
	entries map[uuid.UUID]cron.EntryID
}

func New(runner domain.CycleRunner) *Scheduler {
	logger := &cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		runner:  runner,
		entries: make(map[uuid.UUID]cron.EntryID),
	}
}

// ValidateSpec checks a five-field cron expression without scheduling it.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return apperrors.SchedulingError(fmt.Sprintf("invalid cron expression %q", spec), err)
	}
	return nil
}

// ValidateSpec checks a cron expression. Method form of the package function.
func (s *Scheduler) ValidateSpec(spec string) error {
	return ValidateSpec(spec)
}

// Schedule registers (or replaces) the cron job for a source. Invalid
// expressions fail before any existing job is touched.
func (s *Scheduler) Schedule(source *domain.Source) error {
	if err := ValidateSpec(source.Schedule); err != nil {
		return err
	}

	id := source.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[id]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}

	entryID, err := s.cron.AddFunc(source.Schedule, func() {
		metrics.ScheduledFiringsTotal.Inc()
		if err := s.runner.Run(context.Background(), id); err != nil {
			slog.Error("Scheduled cycle failed", "source_id", id, "error", err)
		}
	})
	if err != nil {
		return apperrors.SchedulingError(fmt.Sprintf("failed to schedule source %s", id), err)
	}

	s.entries[id] = entryID
	metrics.ScheduledJobs.Set(float64(len(s.entries)))

	slog.Info("Source scheduled", "source_id", id, "schedule", source.Schedule)
	return nil
}

// Unschedule removes a source's cron job. Unscheduling a source that has no
// job is a no-op.
func (s *Scheduler) Unschedule(sourceID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.entries[sourceID]
	if !exists {
		return
	}

	s.cron.Remove(entryID)
	delete(s.entries, sourceID)
	metrics.ScheduledJobs.Set(float64(len(s.entries)))

	slog.Info("Source unscheduled", "source_id", sourceID)
}

// CollectNow runs a cycle for a source immediately, outside its schedule.
// The pipeline serializes it against any in-flight scheduled run.
func (s *Scheduler) CollectNow(ctx context.Context, sourceID uuid.UUID) error {
	return s.runner.Run(ctx, sourceID)
}

// JobCount reports how many sources currently have active cron entries.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins firing scheduled jobs. Sources must be scheduled explicitly;
// Start does not load anything itself.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Scheduler started", "jobs", s.JobCount())
}

// Stop halts the scheduler and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Scheduler stopped")
}

// cronLogger adapts the cron library's logging interface onto slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	slog.Error("cron: "+msg, args...)
}
