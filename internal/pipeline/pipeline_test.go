package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
	apperrors "github.com/Thulrus/ParallaxIndex/internal/errors"
	"github.com/Thulrus/ParallaxIndex/internal/plugin"
)

type mockSourceRepo struct {
	getByID func(ctx context.Context, id uuid.UUID) (*domain.Source, error)
}

func (m *mockSourceRepo) Create(context.Context, *domain.Source) error { panic("not implemented") }
func (m *mockSourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	return m.getByID(ctx, id)
}
func (m *mockSourceRepo) List(context.Context, bool) ([]domain.Source, error) {
	panic("not implemented")
}
func (m *mockSourceRepo) Update(context.Context, *domain.Source) error { panic("not implemented") }
func (m *mockSourceRepo) Delete(context.Context, uuid.UUID) error      { panic("not implemented") }

type mockSnapshotRepo struct {
	mu      sync.Mutex
	saved   []*domain.Snapshot
	history []domain.Snapshot
	saveErr error
}

func (m *mockSnapshotRepo) Save(_ context.Context, snapshot *domain.Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, snapshot)
	return nil
}

func (m *mockSnapshotRepo) GetLatest(context.Context, uuid.UUID) (*domain.Snapshot, error) {
	panic("not implemented")
}

func (m *mockSnapshotRepo) GetHistory(context.Context, uuid.UUID, int) ([]domain.Snapshot, error) {
	return m.history, nil
}

func (m *mockSnapshotRepo) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type mockPlugin struct {
	id          string
	collect     func(ctx context.Context, source *domain.Source) (*domain.RawSnapshot, error)
	distill     func(raw *domain.RawSnapshot, history []domain.Snapshot, source *domain.Source) (*domain.Snapshot, error)
	collectGate chan struct{}
}

func (m *mockPlugin) Definition() domain.Definition {
	return domain.Definition{ID: m.id, Category: domain.CategoryNumeric}
}

func (m *mockPlugin) Collect(ctx context.Context, source *domain.Source) (*domain.RawSnapshot, error) {
	if m.collectGate != nil {
		<-m.collectGate
	}
	if m.collect != nil {
		return m.collect(ctx, source)
	}
	return &domain.RawSnapshot{SourceID: source.ID, CollectedAt: time.Now()}, nil
}

func (m *mockPlugin) Distill(raw *domain.RawSnapshot, history []domain.Snapshot, source *domain.Source) (*domain.Snapshot, error) {
	if m.distill != nil {
		return m.distill(raw, history, source)
	}
	return &domain.Snapshot{SourceID: source.ID, CollectedAt: raw.CollectedAt}, nil
}

func (m *mockPlugin) Healthcheck(context.Context, *domain.Source) (bool, string) { return true, "ok" }
func (m *mockPlugin) ValidateConfig(map[string]any) (bool, string)               { return true, "ok" }

func enabledSource(id uuid.UUID) *domain.Source {
	return &domain.Source{ID: id, PluginID: "test_plugin", DisplayName: "Test", Enabled: true}
}

func newTestPipeline(t *testing.T, sources *mockSourceRepo, snapshots *mockSnapshotRepo, p domain.Plugin) *Pipeline {
	t.Helper()
	registry := plugin.NewRegistry()
	if p != nil {
		require.NoError(t, registry.Register(p))
	}
	return New(sources, snapshots, registry, clockwork.NewFakeClock())
}

func TestRun_SuccessPersistsOneSnapshot(t *testing.T) {
	id := uuid.New()
	sources := &mockSourceRepo{getByID: func(_ context.Context, _ uuid.UUID) (*domain.Source, error) {
		return enabledSource(id), nil
	}}
	snapshots := &mockSnapshotRepo{}
	p := newTestPipeline(t, sources, snapshots, &mockPlugin{id: "test_plugin"})

	require.NoError(t, p.Run(context.Background(), id))
	assert.Equal(t, 1, snapshots.savedCount())
}

func TestRun_MissingSourceIsSilentlySkipped(t *testing.T) {
	sources := &mockSourceRepo{getByID: func(_ context.Context, _ uuid.UUID) (*domain.Source, error) {
		return nil, domain.ErrSourceNotFound
	}}
	snapshots := &mockSnapshotRepo{}
	p := newTestPipeline(t, sources, snapshots, &mockPlugin{id: "test_plugin"})

	require.NoError(t, p.Run(context.Background(), uuid.New()))
	assert.Zero(t, snapshots.savedCount())
}

func TestRun_DisabledSourceIsSilentlySkipped(t *testing.T) {
	id := uuid.New()
	collected := false
	sources := &mockSourceRepo{getByID: func(_ context.Context, _ uuid.UUID) (*domain.Source, error) {
		source := enabledSource(id)
		source.Enabled = false
		return source, nil
	}}
	snapshots := &mockSnapshotRepo{}
	plug := &mockPlugin{id: "test_plugin", collect: func(_ context.Context, _ *domain.Source) (*domain.RawSnapshot, error) {
		collected = true
		return nil, nil
	}}
	p := newTestPipeline(t, sources, snapshots, plug)

	require.NoError(t, p.Run(context.Background(), id))
	assert.False(t, collected)
	assert.Zero(t, snapshots.savedCount())
}

func TestRun_UnknownPluginIsSilentlySkipped(t *testing.T) {
	id := uuid.New()
	sources := &mockSourceRepo{getByID: func(_ context.Context, _ uuid.UUID) (*domain.Source, error) {
		source := enabledSource(id)
		source.PluginID = "nowhere"
		return source, nil
	}}
	snapshots := &mockSnapshotRepo{}
	p := newTestPipeline(t, sources, snapshots, &mockPlugin{id: "test_plugin"})

	require.NoError(t, p.Run(context.Background(), id))
	assert.Zero(t, snapshots.savedCount())
}

func TestRun_CollectFailureIsTypedAndNothingPersisted(t *testing.T) {
	id := uuid.New()
	sources := &mockSourceRepo{getByID: func(_ context.Context, _ uuid.UUID) (*domain.Source, error) {
		return enabledSource(id), nil
	}}
	snapshots := &mockSnapshotRepo{}
	plug := &mockPlugin{id: "test_plugin", collect: func(_ context.Context, _ *domain.Source) (*domain.RawSnapshot, error) {
		return nil, fmt.Errorf("connection refused")
	}}
	p := newTestPipeline(t, sources, snapshots, plug)

	err := p.Run(context.Background(), id)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeCollection))
	assert.Zero(t, snapshots.savedCount())
}

func TestRun_DistillFailureNothingPersisted(t *testing.T) {
	id := uuid.New()
	sources := &mockSourceRepo{getByID: func(_ context.Context, _ uuid.UUID) (*domain.Source, error) {
		return enabledSource(id), nil
	}}
	snapshots := &mockSnapshotRepo{}
	plug := &mockPlugin{id: "test_plugin", distill: func(_ *domain.RawSnapshot, _ []domain.Snapshot, _ *domain.Source) (*domain.Snapshot, error) {
		return nil, fmt.Errorf("bad payload")
	}}
	p := newTestPipeline(t, sources, snapshots, plug)

	err := p.Run(context.Background(), id)
	require.Error(t, err)
	assert.Zero(t, snapshots.savedCount())
}

func TestRun_HistoryPassedChronologically(t *testing.T) {
	id := uuid.New()
	sources := &mockSourceRepo{getByID: func(_ context.Context, _ uuid.UUID) (*domain.Source, error) {
		return enabledSource(id), nil
	}}
	// Store order is newest first
	snapshots := &mockSnapshotRepo{history: []domain.Snapshot{
		{Sentiment: 0.3},
		{Sentiment: 0.2},
		{Sentiment: 0.1},
	}}

	var seen []float64
	plug := &mockPlugin{id: "test_plugin", distill: func(raw *domain.RawSnapshot, history []domain.Snapshot, source *domain.Source) (*domain.Snapshot, error) {
		for _, s := range history {
			seen = append(seen, s.Sentiment)
		}
		return &domain.Snapshot{SourceID: source.ID}, nil
	}}
	p := newTestPipeline(t, sources, snapshots, plug)

	require.NoError(t, p.Run(context.Background(), id))
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, seen)
}

func TestRun_ConcurrentRunsCoalesce(t *testing.T) {
	id := uuid.New()
	sources := &mockSourceRepo{getByID: func(_ context.Context, _ uuid.UUID) (*domain.Source, error) {
		return enabledSource(id), nil
	}}
	snapshots := &mockSnapshotRepo{}
	gate := make(chan struct{})
	plug := &mockPlugin{id: "test_plugin", collectGate: gate}
	p := newTestPipeline(t, sources, snapshots, plug)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Run(context.Background(), id)
		}()
	}

	// Let the in-flight cycle finish; all three callers share it
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, snapshots.savedCount())
}
