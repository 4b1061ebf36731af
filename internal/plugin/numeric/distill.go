package numeric

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
)

const (
	modeHigherIsBetter = "higher_is_better"
	modeLowerIsBetter  = "lower_is_better"
	modeTargetIsBest   = "target_is_best"
	modeChangeTracking = "change_tracking"
)

// Distill turns a raw numeric reading into a sentiment snapshot. History is
// chronological, oldest first.
//
// Sentiment calculation depends on the configured mode:
//   - higher_is_better: higher values = positive sentiment
//   - lower_is_better: lower values = positive sentiment
//   - target_is_best: closer to midpoint = positive sentiment
//   - change_tracking: based on percent change from previous value
func (p *Plugin) Distill(raw *domain.RawSnapshot, history []domain.Snapshot, source *domain.Source) (*domain.Snapshot, error) {
	payload, ok := raw.Payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected payload type %T", raw.Payload)
	}
	currentValue, err := toFloat(payload["value"])
	if err != nil {
		return nil, fmt.Errorf("payload has no numeric value: %w", err)
	}

	config := source.Config
	mode, _ := config["mode"].(string)
	if mode == "" {
		mode = modeChangeTracking
	}

	var previousValue, baseline *float64
	if len(history) > 0 {
		prev := valueFromHistory(history[len(history)-1])
		previousValue = &prev
		first := valueFromHistory(history[0])
		baseline = &first
	}

	sentiment, confidence := p.calculateSentiment(currentValue, previousValue, mode, config)

	terms := []domain.TermStat{
		{
			// The reading itself rides along in the term name so later cycles
			// can recover it from history.
			Term:     fmt.Sprintf("value:%v", currentValue),
			Weight:   1.0,
			Polarity: 0.0,
			Novelty:  0.0,
		},
	}

	observedMin, observedMax := currentValue, currentValue
	for _, s := range history {
		v := valueFromHistory(s)
		observedMin = math.Min(observedMin, v)
		observedMax = math.Max(observedMax, v)
	}

	metadata := map[string]any{
		"current_value":  currentValue,
		"observed_min":   observedMin,
		"observed_max":   observedMax,
		"sample_count":   len(history) + 1,
		"previous_value": floatOrNil(previousValue),
		"baseline":       floatOrNil(baseline),
		"mode":           mode,
	}
	if mode != modeChangeTracking {
		metadata["configured_min"] = config["min_value"]
		metadata["configured_max"] = config["max_value"]
		metadata["configured_midpoint"] = config["midpoint"]
	}

	return &domain.Snapshot{
		SourceID:     raw.SourceID,
		CollectedAt:  raw.CollectedAt,
		Sentiment:    sentiment,
		Confidence:   confidence,
		Volatility:   calculateVolatility(history),
		Terms:        terms,
		TermEntropy:  0.0,
		AnomalyScore: calculateAnomaly(history),
		Coverage:     1.0,
		Metadata:     metadata,
	}, nil
}

func (p *Plugin) calculateSentiment(value float64, previous *float64, mode string, config map[string]any) (float64, float64) {
	switch mode {
	case modeHigherIsBetter, modeLowerIsBetter, modeTargetIsBest:
	default:
		// Unrecognized modes degrade to change tracking instead of pinning
		// the source at neutral forever.
		return changeSentiment(value, previous)
	}

	minRaw, hasMin := config["min_value"]
	maxRaw, hasMax := config["max_value"]
	if !hasMin || !hasMax {
		return changeSentiment(value, previous)
	}
	minValue, errMin := toFloat(minRaw)
	maxValue, errMax := toFloat(maxRaw)
	if errMin != nil || errMax != nil {
		return changeSentiment(value, previous)
	}

	midpoint := (minValue + maxValue) / 2
	if raw, ok := config["midpoint"]; ok {
		if m, err := toFloat(raw); err == nil {
			midpoint = m
		}
	}

	return rangeSentiment(value, minValue, maxValue, midpoint, mode)
}

// changeSentiment scores percent change from the previous reading:
// ±5% = ±0.5 sentiment, ±10% = ±1.0 sentiment.
func changeSentiment(value float64, previous *float64) (float64, float64) {
	if previous == nil || *previous == 0 {
		// First reading, nothing to compare against
		return 0.0, 0.5
	}

	percentChange := (value - *previous) / *previous
	sentiment := domain.Clamp(percentChange*10, -1, 1)

	confidence := math.Min(1.0, math.Abs(percentChange)*5)
	if confidence < 0.1 {
		confidence = 0.5
	}
	return sentiment, confidence
}

func rangeSentiment(value, minValue, maxValue, midpoint float64, mode string) (float64, float64) {
	var sentiment, confidence float64

	switch mode {
	case modeHigherIsBetter:
		switch {
		case value >= maxValue:
			sentiment = 1.0
		case value <= minValue:
			sentiment = -1.0
		case value >= midpoint:
			sentiment = (value - midpoint) / (maxValue - midpoint)
		default:
			sentiment = (value - midpoint) / (midpoint - minValue)
		}
		confidence = rangeConfidence(value, minValue, maxValue, midpoint)

	case modeLowerIsBetter:
		switch {
		case value <= minValue:
			sentiment = 1.0
		case value >= maxValue:
			sentiment = -1.0
		case value <= midpoint:
			sentiment = (midpoint - value) / (midpoint - minValue)
		default:
			sentiment = -(value - midpoint) / (maxValue - midpoint)
		}
		confidence = rangeConfidence(value, minValue, maxValue, midpoint)

	case modeTargetIsBest:
		distance := math.Abs(value - midpoint)
		maxDistance := midpoint - minValue
		if value >= midpoint {
			maxDistance = maxValue - midpoint
		}
		if value > maxValue {
			distance = math.Abs(maxValue - midpoint)
			maxDistance = maxValue - midpoint
		} else if value < minValue {
			distance = math.Abs(minValue - midpoint)
			maxDistance = midpoint - minValue
		}

		if maxDistance > 0 {
			sentiment = (1.0-distance/maxDistance)*2 - 1
		} else {
			sentiment = 1.0
		}

		// Confident near the target or the extremes, unsure in between
		if distance < maxDistance*0.1 || distance > maxDistance*0.8 {
			confidence = 0.9
		} else {
			confidence = 0.6
		}
	}

	return sentiment, confidence
}

// rangeConfidence grows toward 1 as the value approaches either extreme. A
// collapsed range has no extremes to approach, so it reads as neutral.
func rangeConfidence(value, minValue, maxValue, midpoint float64) float64 {
	distance := math.Abs(value - midpoint)
	maxDistance := math.Max(math.Abs(maxValue-midpoint), math.Abs(minValue-midpoint))
	if maxDistance <= 0 {
		return 0.5
	}
	return math.Min(1.0, 0.5+(distance/maxDistance)*0.5)
}

// calculateVolatility is the standard deviation of the last 10 sentiments,
// scaled to [0, 1].
func calculateVolatility(history []domain.Snapshot) float64 {
	if len(history) < 2 {
		return 0.0
	}

	recent := history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}

	_, stdDev := meanStdDev(recent)
	return math.Min(1.0, stdDev*2)
}

// calculateAnomaly is a z-score of the latest sentiment against the last 20,
// scaled so z >= 3 maps to 1.
func calculateAnomaly(history []domain.Snapshot) float64 {
	if len(history) < 3 {
		return 0.0
	}

	recent := history
	if len(recent) > 20 {
		recent = recent[len(recent)-20:]
	}

	mean, stdDev := meanStdDev(recent)
	if stdDev == 0 {
		return 0.0
	}

	zScore := math.Abs(recent[len(recent)-1].Sentiment-mean) / stdDev
	return math.Min(1.0, zScore/3)
}

func meanStdDev(snapshots []domain.Snapshot) (mean, stdDev float64) {
	for _, s := range snapshots {
		mean += s.Sentiment
	}
	mean /= float64(len(snapshots))

	var variance float64
	for _, s := range snapshots {
		variance += (s.Sentiment - mean) * (s.Sentiment - mean)
	}
	variance /= float64(len(snapshots))
	return mean, math.Sqrt(variance)
}

// valueFromHistory recovers the numeric reading stored in a snapshot's terms
// as "value:123.45". Old snapshots without it read as 0.
func valueFromHistory(snapshot domain.Snapshot) float64 {
	for _, t := range snapshot.Terms {
		if rest, ok := strings.CutPrefix(t.Term, "value:"); ok {
			if v, err := strconv.ParseFloat(rest, 64); err == nil {
				return v
			}
		}
	}
	return 0.0
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
