package scheduler

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
	apperrors "github.com/Thulrus/ParallaxIndex/internal/errors"
)

type mockRunner struct {
	run func(ctx context.Context, sourceID uuid.UUID) error
}

func (m *mockRunner) Run(ctx context.Context, sourceID uuid.UUID) error {
	if m.run != nil {
		return m.run(ctx, sourceID)
	}
	return nil
}

func scheduledSource(spec string) *domain.Source {
	return &domain.Source{ID: uuid.New(), Schedule: spec, Enabled: true}
}

func TestValidateSpec(t *testing.T) {
	assert.NoError(t, ValidateSpec("*/5 * * * *"))
	assert.NoError(t, ValidateSpec("0 9 * * 1"))

	err := ValidateSpec("not a cron")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeScheduling))

	// Six fields is the seconds-based format, which is not accepted
	assert.Error(t, ValidateSpec("0 0 * * * *"))
}

func TestSchedule_InvalidSpecLeavesExistingJob(t *testing.T) {
	s := New(&mockRunner{})
	source := scheduledSource("*/5 * * * *")
	require.NoError(t, s.Schedule(source))
	require.Equal(t, 1, s.JobCount())

	source.Schedule = "bogus"
	err := s.Schedule(source)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeScheduling))
	assert.Equal(t, 1, s.JobCount())
}

func TestSchedule_ReplaceKeepsSingleEntry(t *testing.T) {
	s := New(&mockRunner{})
	source := scheduledSource("*/5 * * * *")

	require.NoError(t, s.Schedule(source))
	source.Schedule = "0 * * * *"
	require.NoError(t, s.Schedule(source))

	assert.Equal(t, 1, s.JobCount())
}

func TestUnschedule(t *testing.T) {
	s := New(&mockRunner{})
	source := scheduledSource("*/5 * * * *")
	require.NoError(t, s.Schedule(source))

	s.Unschedule(source.ID)
	assert.Equal(t, 0, s.JobCount())

	// Unscheduling again is a no-op
	s.Unschedule(source.ID)
	assert.Equal(t, 0, s.JobCount())
}

func TestCollectNow_DelegatesToRunner(t *testing.T) {
	var got uuid.UUID
	s := New(&mockRunner{run: func(_ context.Context, sourceID uuid.UUID) error {
		got = sourceID
		return nil
	}})

	id := uuid.New()
	require.NoError(t, s.CollectNow(context.Background(), id))
	assert.Equal(t, id, got)
}
