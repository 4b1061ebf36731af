// Package aggregate combines per-source snapshots into global sentiment
// metrics. Everything here is computed on demand from the latest data; no
// aggregate is ever stored.
package aggregate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
	"github.com/Thulrus/ParallaxIndex/internal/metrics"
)

const defaultTrendWindow = 10

type Engine struct {
	sources   domain.SourceRepository
	snapshots domain.SnapshotRepository
	clock     clockwork.Clock
}

func NewEngine(sources domain.SourceRepository, snapshots domain.SnapshotRepository, clock clockwork.Clock) *Engine {
	return &Engine{
		sources:   sources,
		snapshots: snapshots,
		clock:     clock,
	}
}

// ComputeGlobalSentiment folds the latest snapshot of every enabled source
// into one weighted indicator. Each snapshot counts with weight * confidence,
// so an unsure source moves the needle less than a confident one. Returns
// (nil, nil) when no enabled source has produced a snapshot yet.
func (e *Engine) ComputeGlobalSentiment(ctx context.Context) (*domain.GlobalSentiment, error) {
	start := e.clock.Now()

	sources, err := e.sources.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing sources for aggregation: %w", err)
	}
	if len(sources) == 0 {
		return nil, nil
	}

	var (
		totalWeight           float64
		weightedSentiment     float64
		totalVolatility       float64
		totalConfidenceWeight float64
		sumSourceWeight       float64
		included              int
	)

	for i := range sources {
		source := &sources[i]
		snapshot, err := e.snapshots.GetLatest(ctx, source.ID)
		if err != nil {
			return nil, fmt.Errorf("loading latest snapshot for aggregation: %w", err)
		}
		if snapshot == nil {
			continue
		}

		effectiveWeight := source.Weight * snapshot.Confidence
		weightedSentiment += snapshot.Sentiment * effectiveWeight
		totalVolatility += snapshot.Volatility * effectiveWeight
		totalWeight += effectiveWeight

		totalConfidenceWeight += snapshot.Confidence * source.Weight
		sumSourceWeight += source.Weight
		included++
	}

	if included == 0 || totalWeight == 0 {
		return nil, nil
	}

	// Few sources means low diversity; scale confidence down below 5 sources
	diversityFactor := min(1.0, float64(included)/5)
	globalConfidence := (totalConfidenceWeight / sumSourceWeight) * diversityFactor

	metrics.AggregationDuration.Observe(e.clock.Since(start).Seconds())
	metrics.AggregationSourcesIncluded.Set(float64(included))

	return &domain.GlobalSentiment{
		Timestamp:   e.clock.Now().UTC(),
		Sentiment:   weightedSentiment / totalWeight,
		Confidence:  globalConfidence,
		SourceCount: included,
		Volatility:  totalVolatility / totalWeight,
	}, nil
}

// ComputeSourceContribution reports how much one source moves the global
// indicator, as a 0 to 1 factor. The second return is false when the
// contribution is undefined: no global value, source missing or disabled, or
// no snapshot yet.
func (e *Engine) ComputeSourceContribution(ctx context.Context, sourceID uuid.UUID) (float64, bool, error) {
	global, err := e.ComputeGlobalSentiment(ctx)
	if err != nil {
		return 0, false, err
	}
	if global == nil {
		return 0, false, nil
	}

	source, err := e.sources.GetByID(ctx, sourceID)
	if err != nil {
		return 0, false, err
	}
	if !source.Enabled {
		return 0, false, nil
	}

	snapshot, err := e.snapshots.GetLatest(ctx, sourceID)
	if err != nil {
		return 0, false, err
	}
	if snapshot == nil {
		return 0, false, nil
	}

	contribution := abs(snapshot.Sentiment) * source.Weight / 10.0
	return domain.Clamp(contribution, 0, 1), true, nil
}

// SentimentTrend fits a line through a source's recent sentiments and reports
// the normalized slope in [-1, 1]. Negative is declining, positive improving.
// The second return is false when fewer than 3 snapshots exist. windowSize <= 0
// uses the default window of 10.
func (e *Engine) SentimentTrend(ctx context.Context, sourceID uuid.UUID, windowSize int) (float64, bool, error) {
	if windowSize <= 0 {
		windowSize = defaultTrendWindow
	}

	history, err := e.snapshots.GetHistory(ctx, sourceID, windowSize)
	if err != nil {
		return 0, false, fmt.Errorf("loading history for trend: %w", err)
	}
	if len(history) < 3 {
		return 0, false, nil
	}

	// History arrives newest first; index chronologically for the regression
	n := len(history)
	xMean := float64(n-1) / 2

	var yMean float64
	for _, s := range history {
		yMean += s.Sentiment
	}
	yMean /= float64(n)

	var numerator, denominator float64
	for i := 0; i < n; i++ {
		x := float64(i) - xMean
		y := history[n-1-i].Sentiment - yMean
		numerator += x * y
		denominator += x * x
	}

	if denominator == 0 {
		return 0, true, nil
	}

	// A slope of 0.1 per snapshot is a strong trend
	slope := numerator / denominator
	return domain.Clamp(slope*10, -1, 1), true, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
