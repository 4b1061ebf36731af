// Package app wires sources, plugins, and scheduling into the operations the
// HTTP layer exposes.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
	apperrors "github.com/Thulrus/ParallaxIndex/internal/errors"
	"github.com/Thulrus/ParallaxIndex/internal/plugin"
)

const defaultHistoryLimit = 20

// SchedulerPort is the slice of the scheduler the service needs. Validation
// happens before any persistence so a bad schedule never reaches the store.
type SchedulerPort interface {
	Schedule(source *domain.Source) error
	Unschedule(sourceID uuid.UUID)
	CollectNow(ctx context.Context, sourceID uuid.UUID) error
	ValidateSpec(spec string) error
}

// SourceParams carries the mutable fields of a source for create and update.
type SourceParams struct {
	PluginID    string         `json:"plugin_id"`
	DisplayName string         `json:"display_name"`
	Enabled     bool           `json:"enabled"`
	Config      map[string]any `json:"config"`
	Weight      float64        `json:"weight"`
	Polarity    string         `json:"sentiment_polarity"`
	Schedule    string         `json:"schedule"`
}

type Service struct {
	sources   domain.SourceRepository
	snapshots domain.SnapshotRepository
	registry  *plugin.Registry
	scheduler SchedulerPort
}

func NewService(sources domain.SourceRepository, snapshots domain.SnapshotRepository, registry *plugin.Registry, scheduler SchedulerPort) *Service {
	return &Service{
		sources:   sources,
		snapshots: snapshots,
		registry:  registry,
		scheduler: scheduler,
	}
}

func (s *Service) validateParams(params *SourceParams) (domain.Plugin, error) {
	plug, err := s.registry.Get(params.PluginID)
	if err != nil {
		return nil, apperrors.NotFoundError(fmt.Sprintf("plugin %q not found", params.PluginID))
	}

	if params.DisplayName == "" {
		return nil, apperrors.ValidationError("display_name must not be empty")
	}

	if params.Weight < 0 || params.Weight > 10 {
		return nil, apperrors.ValidationError("weight must be between 0 and 10")
	}

	if valid, msg := plug.ValidateConfig(params.Config); !valid {
		return nil, apperrors.ValidationError("invalid configuration: " + msg)
	}

	if err := s.scheduler.ValidateSpec(params.Schedule); err != nil {
		return nil, err
	}

	return plug, nil
}

// CreateSource validates and persists a new source, scheduling it when
// enabled.
func (s *Service) CreateSource(ctx context.Context, params SourceParams) (*domain.Source, error) {
	if params.Config == nil {
		params.Config = map[string]any{}
	}
	if _, err := s.validateParams(&params); err != nil {
		return nil, err
	}

	source := &domain.Source{
		ID:          uuid.New(),
		PluginID:    params.PluginID,
		DisplayName: params.DisplayName,
		Enabled:     params.Enabled,
		Config:      params.Config,
		Weight:      params.Weight,
		Polarity:    domain.ParsePolarity(params.Polarity),
		Schedule:    params.Schedule,
	}

	if err := s.sources.Create(ctx, source); err != nil {
		return nil, err
	}

	if source.Enabled {
		if err := s.scheduler.Schedule(source); err != nil {
			return nil, err
		}
	}

	slog.Info("Source created",
		"source_id", source.ID, "plugin_id", source.PluginID, "enabled", source.Enabled)
	return source, nil
}

// UpdateSource applies new parameters to an existing source and re-derives
// its scheduling state.
func (s *Service) UpdateSource(ctx context.Context, id uuid.UUID, params SourceParams) (*domain.Source, error) {
	source, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Config == nil {
		params.Config = map[string]any{}
	}
	if _, err := s.validateParams(&params); err != nil {
		return nil, err
	}

	source.PluginID = params.PluginID
	source.DisplayName = params.DisplayName
	source.Enabled = params.Enabled
	source.Config = params.Config
	source.Weight = params.Weight
	source.Polarity = domain.ParsePolarity(params.Polarity)
	source.Schedule = params.Schedule

	if err := s.sources.Update(ctx, source); err != nil {
		return nil, err
	}

	if err := s.applySchedulingState(source); err != nil {
		return nil, err
	}

	slog.Info("Source updated", "source_id", source.ID)
	return source, nil
}

// ToggleSource flips a source between enabled and disabled.
func (s *Service) ToggleSource(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	source, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	source.Enabled = !source.Enabled
	if err := s.sources.Update(ctx, source); err != nil {
		return nil, err
	}

	if err := s.applySchedulingState(source); err != nil {
		return nil, err
	}

	slog.Info("Source toggled", "source_id", source.ID, "enabled", source.Enabled)
	return source, nil
}

func (s *Service) applySchedulingState(source *domain.Source) error {
	if source.Enabled {
		return s.scheduler.Schedule(source)
	}
	s.scheduler.Unschedule(source.ID)
	return nil
}

// DeleteSource unschedules and removes a source. Its snapshots go with it.
func (s *Service) DeleteSource(ctx context.Context, id uuid.UUID) error {
	s.scheduler.Unschedule(id)

	if err := s.sources.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("Source deleted", "source_id", id)
	return nil
}

func (s *Service) GetSource(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	return s.sources.GetByID(ctx, id)
}

func (s *Service) ListSources(ctx context.Context) ([]domain.Source, error) {
	return s.sources.List(ctx, false)
}

// History returns recent snapshots for a source, newest first. limit <= 0
// uses the default of 20.
func (s *Service) History(ctx context.Context, id uuid.UUID, limit int) ([]domain.Snapshot, error) {
	if _, err := s.sources.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.snapshots.GetHistory(ctx, id, limit)
}

// CollectNow triggers an immediate cycle for a source, coalescing with any
// run already in flight.
func (s *Service) CollectNow(ctx context.Context, id uuid.UUID) error {
	return s.scheduler.CollectNow(ctx, id)
}

// Healthcheck asks a source's plugin whether the source is reachable.
func (s *Service) Healthcheck(ctx context.Context, id uuid.UUID) (bool, string, error) {
	source, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return false, "", err
	}

	plug, err := s.registry.Get(source.PluginID)
	if err != nil {
		return false, "", apperrors.NotFoundError(fmt.Sprintf("plugin %q not found", source.PluginID))
	}

	healthy, message := plug.Healthcheck(ctx, source)
	return healthy, message, nil
}

func (s *Service) Plugins() []domain.Definition {
	return s.registry.Definitions()
}

// ScheduleEnabledSources registers cron jobs for every enabled source.
// Called once at startup, before the scheduler starts firing.
func (s *Service) ScheduleEnabledSources(ctx context.Context) (int, error) {
	sources, err := s.sources.List(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("listing sources at startup: %w", err)
	}

	scheduled := 0
	for i := range sources {
		if err := s.scheduler.Schedule(&sources[i]); err != nil {
			slog.Error("Failed to schedule source at startup",
				"source_id", sources[i].ID, "schedule", sources[i].Schedule, "error", err)
			continue
		}
		scheduled++
	}
	return scheduled, nil
}
