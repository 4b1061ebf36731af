// Package preview lets operators probe an endpoint and explore its structure
// before committing to a source configuration.
package preview

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Thulrus/ParallaxIndex/internal/httpfetch"
)

const defaultTimeout = 10 * time.Second

// Result is what a probe reports back. Data holds the parsed response; Paths
// lists every JSON path into it, ready to paste into a json_path config.
type Result struct {
	Success        bool       `json:"success"`
	Data           any        `json:"data,omitempty"`
	Error          string     `json:"error,omitempty"`
	ContentType    string     `json:"content_type,omitempty"`
	StatusCode     int        `json:"status_code,omitempty"`
	ResponseTimeMS float64    `json:"response_time_ms,omitempty"`
	Paths          []PathInfo `json:"paths,omitempty"`
}

// PathInfo describes one navigable location inside a JSON response.
type PathInfo struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
	Type  string `json:"type"`
}

type Prober struct {
	fetch *httpfetch.Client
}

func NewProber(fetch *httpfetch.Client) *Prober {
	return &Prober{fetch: fetch}
}

// Probe fetches the URL and reports its structure. Fetch failures come back
// as an unsuccessful Result rather than an error; the caller is exploring,
// not collecting. A timeout of zero uses the 10s default.
func (p *Prober) Probe(ctx context.Context, url string, timeout time.Duration) *Result {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	res, err := p.fetch.Probe(ctx, url, timeout)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}
	}

	result := &Result{
		Success:        true,
		ContentType:    res.ContentType,
		StatusCode:     res.StatusCode,
		ResponseTimeMS: float64(res.Duration.Milliseconds()),
	}

	var data any
	if err := json.Unmarshal(res.Body, &data); err == nil {
		result.Data = data
		result.Paths = ExtractPaths(data, "")
		return result
	}

	text := string(res.Body)
	if number, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		result.Data = map[string]any{"value": number, "_raw_text": text}
		return result
	}

	result.Data = map[string]any{"_raw_text": text}
	return result
}

// ExtractPaths walks a decoded JSON structure and lists every reachable path.
// Arrays are represented by their first element.
func ExtractPaths(data any, prefix string) []PathInfo {
	var paths []PathInfo

	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			value := v[key]
			current := key
			if prefix != "" {
				current = prefix + "." + key
			}

			paths = append(paths, PathInfo{Path: current, Value: value, Type: describeType(value)})

			switch value.(type) {
			case map[string]any, []any:
				paths = append(paths, ExtractPaths(value, current)...)
			}
		}

	case []any:
		if len(v) == 0 {
			return nil
		}
		current := prefix + "[0]"
		first := v[0]
		paths = append(paths, PathInfo{Path: current, Value: first, Type: typeName(first)})

		switch first.(type) {
		case map[string]any, []any:
			paths = append(paths, ExtractPaths(first, current)...)
		}
	}

	return paths
}

func describeType(value any) string {
	switch value.(type) {
	case map[string]any:
		return "object (nested)"
	case []any:
		return "array (nested)"
	default:
		return typeName(value)
	}
}

func typeName(value any) string {
	switch value.(type) {
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}
