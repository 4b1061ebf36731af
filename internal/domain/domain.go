package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Enumerations ---

// SourceCategory classifies the kind of data a plugin produces.
type SourceCategory string

const (
	CategoryText    SourceCategory = "TEXT"
	CategoryNumeric SourceCategory = "NUMERIC"
	CategoryEvent   SourceCategory = "EVENT"
)

// Polarity describes how a source's sentiment direction should be interpreted.
type Polarity string

const (
	PolarityPositiveIsGood Polarity = "POSITIVE_IS_GOOD"
	PolarityNegativeIsGood Polarity = "NEGATIVE_IS_GOOD"
	PolarityNeutral        Polarity = "NEUTRAL"
)

// ParsePolarity maps a stored string to a Polarity, defaulting to POSITIVE_IS_GOOD.
func ParsePolarity(s string) Polarity {
	switch Polarity(s) {
	case PolarityNegativeIsGood:
		return PolarityNegativeIsGood
	case PolarityNeutral:
		return PolarityNeutral
	default:
		return PolarityPositiveIsGood
	}
}

// --- Model types ---

// Source is a configured instance of a plugin: one monitored feed.
type Source struct {
	ID          uuid.UUID      `json:"source_id"`
	PluginID    string         `json:"plugin_id"`
	DisplayName string         `json:"display_name"`
	Enabled     bool           `json:"enabled"`
	Config      map[string]any `json:"config"`
	Weight      float64        `json:"weight"`
	Polarity    Polarity       `json:"sentiment_polarity"`
	Schedule    string         `json:"schedule"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Diagnostics records how a collection call went. Display only, never persisted.
type Diagnostics struct {
	ResponseTimeMS float64 `json:"response_time_ms"`
	StatusCode     int     `json:"status_code"`
	ContentType    string  `json:"content_type"`
}

// RawSnapshot is the ephemeral result of one collection. It lives only for the
// duration of a single pipeline cycle and is never persisted; no handle to it
// may outlive the cycle that produced it.
type RawSnapshot struct {
	SourceID    uuid.UUID
	CollectedAt time.Time
	Payload     any
	Diagnostics Diagnostics
}

// TermStat carries statistics about one term extracted during distillation.
type TermStat struct {
	Term     string  `json:"term"`
	Weight   float64 `json:"weight"`
	Polarity float64 `json:"polarity"`
	Novelty  float64 `json:"novelty"`
}

// Snapshot is the canonical persisted unit: one distilled measurement.
// Snapshots are append-only and immutable once written; the only deletion
// path is the cascade when their owning source is deleted.
type Snapshot struct {
	ID           int64          `json:"-"`
	SourceID     uuid.UUID      `json:"source_id"`
	CollectedAt  time.Time      `json:"timestamp"`
	Sentiment    float64        `json:"sentiment"`
	Confidence   float64        `json:"sentiment_confidence"`
	Volatility   float64        `json:"volatility"`
	Terms        []TermStat     `json:"terms"`
	TermEntropy  float64        `json:"term_entropy"`
	AnomalyScore float64        `json:"anomaly_score"`
	Coverage     float64        `json:"coverage"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// GlobalSentiment is the derived cross-source indicator. It is recomputed on
// every query and never stored or cached.
type GlobalSentiment struct {
	Timestamp   time.Time `json:"timestamp"`
	Sentiment   float64   `json:"global_sentiment"`
	Confidence  float64   `json:"confidence"`
	SourceCount int       `json:"source_count"`
	Volatility  float64   `json:"volatility"`
}

// Definition describes a plugin's identity and configuration requirements.
type Definition struct {
	ID           string         `json:"plugin_id"`
	Version      string         `json:"plugin_version"`
	DisplayName  string         `json:"display_name"`
	Description  string         `json:"description"`
	Category     SourceCategory `json:"source_category"`
	ConfigSchema map[string]any `json:"config_schema"`
}

// --- Interfaces ---

// Plugin is the capability set every source-type variant must implement.
// Collect must not persist anything; Distill must be a pure function of its
// three inputs.
type Plugin interface {
	Definition() Definition
	Collect(ctx context.Context, source *Source) (*RawSnapshot, error)
	Distill(raw *RawSnapshot, history []Snapshot, source *Source) (*Snapshot, error)
	Healthcheck(ctx context.Context, source *Source) (healthy bool, message string)
	ValidateConfig(config map[string]any) (valid bool, message string)
}

// SourceRepository abstracts source configuration persistence.
type SourceRepository interface {
	Create(ctx context.Context, source *Source) error
	GetByID(ctx context.Context, id uuid.UUID) (*Source, error)
	List(ctx context.Context, enabledOnly bool) ([]Source, error)
	Update(ctx context.Context, source *Source) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SnapshotRepository abstracts the append-only snapshot store.
// GetHistory returns snapshots most-recent-first.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	GetLatest(ctx context.Context, sourceID uuid.UUID) (*Snapshot, error)
	GetHistory(ctx context.Context, sourceID uuid.UUID, limit int) ([]Snapshot, error)
}

// CycleRunner executes one full collection cycle for a source.
type CycleRunner interface {
	Run(ctx context.Context, sourceID uuid.UUID) error
}

// --- Helpers ---

// Clamp bounds v to [lo, hi]. Every bounded field in this package must pass
// through here after computation; ranges are enforced, not assumed.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
