package numeric

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var data any
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	return data
}

func TestExtractJSONPath(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
		want float64
	}{
		{"simple key", `{"value": 42.5}`, "value", 42.5},
		{"nested keys", `{"data": {"value": 7}}`, "data.value", 7},
		{"array index", `{"results": [{"score": 0.9}]}`, "results[0].score", 0.9},
		{"trailing index", `{"daily": {"temperature_2m_max": [18.3, 21.0]}}`, "daily.temperature_2m_max[0]", 18.3},
		{"double index", `{"grid": [[1, 2], [3, 4]]}`, "grid[1][0]", 3},
		{"bare index", `[10, 20, 30]`, "[2]", 30},
		{"numeric string leaf", `{"price": "19.99"}`, "price", 19.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONPath(decode(t, tt.body), tt.path)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestExtractJSONPath_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
	}{
		{"missing key", `{"data": {}}`, "data.value"},
		{"index on object", `{"data": {"value": 1}}`, "data[0]"},
		{"index out of range", `{"data": [1]}`, "data[5]"},
		{"key on scalar", `{"data": 3}`, "data.value"},
		{"non-numeric leaf", `{"data": {"value": true}}`, "data.value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractJSONPath(decode(t, tt.body), tt.path)
			assert.Error(t, err)
		})
	}
}
