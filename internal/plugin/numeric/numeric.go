// Package numeric tracks a single numeric value from a URL (stock prices,
// economic indicators, weather readings) and turns it into sentiment.
package numeric

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
	"github.com/Thulrus/ParallaxIndex/internal/httpfetch"
	"github.com/Thulrus/ParallaxIndex/internal/plugin"
)

const defaultTimeoutSeconds = 10

type Plugin struct {
	fetch          *httpfetch.Client
	defaultTimeout time.Duration
}

// New builds the plugin. defaultTimeout applies when a source does not
// configure its own timeout; zero falls back to ten seconds.
func New(fetch *httpfetch.Client, defaultTimeout time.Duration) *Plugin {
	if defaultTimeout <= 0 {
		defaultTimeout = defaultTimeoutSeconds * time.Second
	}
	return &Plugin{fetch: fetch, defaultTimeout: defaultTimeout}
}

func (p *Plugin) Definition() domain.Definition {
	return domain.Definition{
		ID:          "numeric_index",
		Version:     "2.0.0",
		DisplayName: "Numeric Index",
		Description: "Tracks a single numeric value from a URL. " +
			"Calculates sentiment based on configurable range and polarity modes.",
		Category: domain.CategoryNumeric,
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"format":      "uri",
					"description": "URL that returns a numeric value",
				},
				"json_path": map[string]any{
					"type":        "string",
					"description": "JSON path to extract value (e.g., 'data.value', 'data[0]')",
				},
				"timeout": map[string]any{
					"type":        "integer",
					"default":     defaultTimeoutSeconds,
					"description": "Request timeout in seconds",
				},
				"mode": map[string]any{
					"type":        "string",
					"enum":        []string{modeHigherIsBetter, modeLowerIsBetter, modeTargetIsBest, modeChangeTracking},
					"default":     modeChangeTracking,
					"description": "Sentiment calculation mode",
				},
				"min_value": map[string]any{
					"type":        "number",
					"description": "Minimum value of expected range (required for range-based modes)",
				},
				"max_value": map[string]any{
					"type":        "number",
					"description": "Maximum value of expected range (required for range-based modes)",
				},
				"midpoint": map[string]any{
					"type":        "number",
					"description": "Neutral/target value (defaults to middle of range if not specified)",
				},
			},
			"required": []string{"url"},
		},
	}
}

// Collect fetches the configured URL and extracts a numeric value. Supports
// both plaintext numeric responses and JSON responses.
func (p *Plugin) Collect(ctx context.Context, source *domain.Source) (*domain.RawSnapshot, error) {
	url, ok := source.Config["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("source %s has no url configured", source.ID)
	}

	timeout := p.defaultTimeout
	if raw, ok := source.Config["timeout"]; ok {
		if seconds, err := toFloat(raw); err == nil && seconds > 0 {
			timeout = time.Duration(seconds * float64(time.Second))
		}
	}
	jsonPath, _ := source.Config["json_path"].(string)

	res, err := p.fetch.Get(ctx, url, timeout)
	if err != nil {
		return nil, err
	}

	value, err := parseValue(res.Body, jsonPath)
	if err != nil {
		return nil, err
	}

	return &domain.RawSnapshot{
		SourceID:    source.ID,
		CollectedAt: time.Now().UTC(),
		Payload:     map[string]any{"value": value},
		Diagnostics: domain.Diagnostics{
			ResponseTimeMS: float64(res.Duration.Milliseconds()),
			StatusCode:     res.StatusCode,
			ContentType:    res.ContentType,
		},
	}, nil
}

// parseValue extracts the numeric reading from a response body. JSON is tried
// first; anything that fails JSON extraction falls back to plaintext parsing.
func parseValue(body []byte, jsonPath string) (float64, error) {
	var data any
	if err := json.Unmarshal(body, &data); err == nil {
		value, err := valueFromJSON(data, jsonPath)
		if err == nil {
			return value, nil
		}
	}

	text := strings.TrimSpace(string(body))
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if len(text) > 100 {
			text = text[:100]
		}
		return 0, fmt.Errorf("cannot parse response as number: %s", text)
	}
	return value, nil
}

func valueFromJSON(data any, jsonPath string) (float64, error) {
	if jsonPath != "" {
		return extractJSONPath(data, jsonPath)
	}

	switch v := data.(type) {
	case float64:
		return v, nil
	case map[string]any:
		if raw, ok := v["value"]; ok {
			return toFloat(raw)
		}
	}
	return 0, fmt.Errorf("cannot determine numeric value from JSON response")
}

func (p *Plugin) Healthcheck(ctx context.Context, source *domain.Source) (bool, string) {
	return plugin.HealthcheckByCollect(ctx, p, source)
}

func (p *Plugin) ValidateConfig(config map[string]any) (bool, string) {
	if ok, msg := plugin.ValidateRequired(p.Definition().ConfigSchema, config); !ok {
		return false, msg
	}

	if mode, ok := config["mode"].(string); ok {
		switch mode {
		case modeHigherIsBetter, modeLowerIsBetter, modeTargetIsBest, modeChangeTracking:
		default:
			return false, fmt.Sprintf("unknown mode: %s", mode)
		}
	}

	minRaw, hasMin := config["min_value"]
	maxRaw, hasMax := config["max_value"]
	if hasMin && hasMax {
		minValue, minErr := toFloat(minRaw)
		maxValue, maxErr := toFloat(maxRaw)
		if minErr == nil && maxErr == nil && minValue >= maxValue {
			return false, fmt.Sprintf("min_value %v must be less than max_value %v", minValue, maxValue)
		}
	}
	return true, "ok"
}

// toFloat tolerates the int/float ambiguity of JSON-decoded config maps.
func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("not a number: %v", raw)
	}
}
