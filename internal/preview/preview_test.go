package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thulrus/ParallaxIndex/internal/httpfetch"
)

func TestExtractPaths(t *testing.T) {
	var data any
	require.NoError(t, json.Unmarshal([]byte(`{
		"price": 19.99,
		"meta": {"currency": "EUR"},
		"series": [{"close": 187.3}]
	}`), &data))

	paths := ExtractPaths(data, "")

	byPath := make(map[string]PathInfo)
	for _, p := range paths {
		byPath[p.Path] = p
	}

	assert.Equal(t, "number", byPath["price"].Type)
	assert.Equal(t, 19.99, byPath["price"].Value)
	assert.Equal(t, "object (nested)", byPath["meta"].Type)
	assert.Equal(t, "string", byPath["meta.currency"].Type)
	assert.Equal(t, "array (nested)", byPath["series"].Type)
	assert.Contains(t, byPath, "series[0]")
	assert.Equal(t, "number", byPath["series[0].close"].Type)
	assert.Equal(t, 187.3, byPath["series[0].close"].Value)
}

func TestExtractPaths_TopLevelArray(t *testing.T) {
	var data any
	require.NoError(t, json.Unmarshal([]byte(`[{"v": 1}, {"v": 2}]`), &data))

	paths := ExtractPaths(data, "")
	require.NotEmpty(t, paths)
	assert.Equal(t, "[0]", paths[0].Path)
	assert.Equal(t, "object", paths[0].Type)
}

func TestProbe_JSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": 42}`))
	}))
	defer server.Close()

	result := NewProber(httpfetch.NewClient()).Probe(context.Background(), server.URL, 0)

	require.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.NotEmpty(t, result.Paths)
}

func TestProbe_PlaintextNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("3.14\n"))
	}))
	defer server.Close()

	result := NewProber(httpfetch.NewClient()).Probe(context.Background(), server.URL, 0)

	require.True(t, result.Success)
	data := result.Data.(map[string]any)
	assert.Equal(t, 3.14, data["value"])
}

func TestProbe_FetchFailure(t *testing.T) {
	result := NewProber(httpfetch.NewClient()).Probe(context.Background(), "http://127.0.0.1:1", 0)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}
