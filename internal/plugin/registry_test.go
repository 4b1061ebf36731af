package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
)

type stubPlugin struct {
	id string
}

func (s *stubPlugin) Definition() domain.Definition {
	return domain.Definition{ID: s.id, Version: "1.0.0", Category: domain.CategoryNumeric}
}

func (s *stubPlugin) Collect(_ context.Context, _ *domain.Source) (*domain.RawSnapshot, error) {
	return &domain.RawSnapshot{}, nil
}

func (s *stubPlugin) Distill(_ *domain.RawSnapshot, _ []domain.Snapshot, _ *domain.Source) (*domain.Snapshot, error) {
	return &domain.Snapshot{}, nil
}

func (s *stubPlugin) Healthcheck(_ context.Context, _ *domain.Source) (bool, string) {
	return true, "ok"
}

func (s *stubPlugin) ValidateConfig(_ map[string]any) (bool, string) {
	return true, "ok"
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&stubPlugin{id: "alpha"}))

	p, err := registry.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", p.Definition().ID)
}

func TestRegistry_DuplicateID(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&stubPlugin{id: "alpha"}))

	err := registry.Register(&stubPlugin{id: "alpha"})
	assert.ErrorContains(t, err, "already registered")
}

func TestRegistry_GetUnknown(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("missing")
	assert.ErrorIs(t, err, domain.ErrPluginNotFound)
}

func TestRegistry_DefinitionsSorted(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&stubPlugin{id: "zeta"}))
	require.NoError(t, registry.Register(&stubPlugin{id: "alpha"}))
	require.NoError(t, registry.Register(&stubPlugin{id: "mid"}))

	defs := registry.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].ID)
	assert.Equal(t, "mid", defs[1].ID)
	assert.Equal(t, "zeta", defs[2].ID)
}

func TestValidateRequired(t *testing.T) {
	schema := map[string]any{"required": []string{"url"}}

	ok, _ := ValidateRequired(schema, map[string]any{"url": "https://example.com"})
	assert.True(t, ok)

	ok, msg := ValidateRequired(schema, map[string]any{})
	assert.False(t, ok)
	assert.Contains(t, msg, "url")

	ok, _ = ValidateRequired(schema, map[string]any{"url": ""})
	assert.False(t, ok)

	// No required list means anything goes
	ok, _ = ValidateRequired(map[string]any{}, map[string]any{})
	assert.True(t, ok)
}

func TestValidateRequired_JSONDecodedSchema(t *testing.T) {
	// A schema that round-tripped through JSON carries []any, not []string
	schema := map[string]any{"required": []any{"url"}}

	ok, _ := ValidateRequired(schema, map[string]any{"url": "https://example.com"})
	assert.True(t, ok)

	ok, msg := ValidateRequired(schema, map[string]any{})
	assert.False(t, ok)
	assert.Contains(t, msg, "url")
}
