// Package pipeline runs the collect-distill-persist cycle for a source.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
	apperrors "github.com/Thulrus/ParallaxIndex/internal/errors"
	"github.com/Thulrus/ParallaxIndex/internal/metrics"
	"github.com/Thulrus/ParallaxIndex/internal/plugin"
)

// historyLimit is how many recent snapshots a plugin sees during distillation.
const historyLimit = 50

// Pipeline executes collection cycles. Cycles for the same source are
// serialized through a singleflight group, so a manual trigger that lands
// while a scheduled run is in flight joins that run instead of racing it.
type Pipeline struct {
	sources   domain.SourceRepository
	snapshots domain.SnapshotRepository
	registry  *plugin.Registry
	clock     clockwork.Clock

	group singleflight.Group
}

func New(sources domain.SourceRepository, snapshots domain.SnapshotRepository, registry *plugin.Registry, clock clockwork.Clock) *Pipeline {
	return &Pipeline{
		sources:   sources,
		snapshots: snapshots,
		registry:  registry,
		clock:     clock,
	}
}

// Run executes one full cycle for a source. A missing or disabled source and
// an unknown plugin are logged and skipped without error; collection and
// persistence failures are returned.
func (p *Pipeline) Run(ctx context.Context, sourceID uuid.UUID) error {
	_, err, shared := p.group.Do(sourceID.String(), func() (any, error) {
		return nil, p.runCycle(ctx, sourceID)
	})
	if shared {
		metrics.CollectionsCoalescedTotal.Inc()
	}
	return err
}

func (p *Pipeline) runCycle(ctx context.Context, sourceID uuid.UUID) error {
	source, err := p.sources.GetByID(ctx, sourceID)
	if errors.Is(err, domain.ErrSourceNotFound) {
		slog.Warn("Skipping cycle for unknown source", "source_id", sourceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading source for cycle: %w", err)
	}

	if !source.Enabled {
		slog.Debug("Skipping cycle for disabled source", "source_id", sourceID)
		return nil
	}

	plug, err := p.registry.Get(source.PluginID)
	if err != nil {
		slog.Error("Skipping cycle, plugin not registered",
			"source_id", sourceID, "plugin_id", source.PluginID)
		return nil
	}

	start := p.clock.Now()

	raw, err := plug.Collect(ctx, source)
	if err != nil {
		metrics.CollectionCyclesTotal.WithLabelValues(source.PluginID, "collect_failed").Inc()
		slog.Error("Collection failed",
			"source_id", sourceID, "plugin_id", source.PluginID, "error", err)
		return apperrors.CollectionError(
			fmt.Sprintf("collection failed for source %q", source.DisplayName), err,
		).WithField("source_id", sourceID.String())
	}

	history, err := p.snapshots.GetHistory(ctx, sourceID, historyLimit)
	if err != nil {
		metrics.CollectionCyclesTotal.WithLabelValues(source.PluginID, "history_failed").Inc()
		return fmt.Errorf("loading history for cycle: %w", err)
	}

	// Plugins expect history oldest first; the store returns newest first.
	chronological := make([]domain.Snapshot, len(history))
	for i, s := range history {
		chronological[len(history)-1-i] = s
	}

	snapshot, err := plug.Distill(raw, chronological, source)
	if err != nil {
		metrics.CollectionCyclesTotal.WithLabelValues(source.PluginID, "distill_failed").Inc()
		slog.Error("Distillation failed",
			"source_id", sourceID, "plugin_id", source.PluginID, "error", err)
		return apperrors.InternalError("distillation failed", err).
			WithField("source_id", sourceID.String())
	}

	if err := p.snapshots.Save(ctx, snapshot); err != nil {
		metrics.CollectionCyclesTotal.WithLabelValues(source.PluginID, "save_failed").Inc()
		return fmt.Errorf("persisting snapshot: %w", err)
	}

	duration := p.clock.Since(start)
	metrics.CollectionCyclesTotal.WithLabelValues(source.PluginID, "ok").Inc()
	metrics.CollectionCycleDuration.WithLabelValues(source.PluginID).Observe(duration.Seconds())
	metrics.SnapshotsPersistedTotal.Inc()

	slog.Info("Cycle completed",
		"source_id", sourceID,
		"plugin_id", source.PluginID,
		"sentiment", snapshot.Sentiment,
		"confidence", snapshot.Confidence,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}
