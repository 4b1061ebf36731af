package numeric

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var indexedPart = regexp.MustCompile(`^([^\[]*)((?:\[\d+\])+)$`)
var singleIndex = regexp.MustCompile(`\[(\d+)\]`)

// extractJSONPath navigates nested JSON using dot notation with optional
// array indices, e.g. "data.value", "results[0].score",
// "daily.temperature_2m_max[0]".
func extractJSONPath(data any, path string) (float64, error) {
	current := data

	for _, part := range strings.Split(path, ".") {
		match := indexedPart.FindStringSubmatch(part)
		if match == nil {
			next, err := navigateKey(current, part, path)
			if err != nil {
				return 0, err
			}
			current = next
			continue
		}

		name := match[1]
		if name != "" {
			next, err := navigateKey(current, name, path)
			if err != nil {
				return 0, err
			}
			current = next
		}

		for _, idx := range singleIndex.FindAllStringSubmatch(match[2], -1) {
			list, ok := current.([]any)
			if !ok {
				return 0, fmt.Errorf("cannot navigate path %q: not a list at %q", path, part)
			}
			i, _ := strconv.Atoi(idx[1])
			if i >= len(list) {
				return 0, fmt.Errorf("cannot navigate path %q: index %d out of range", path, i)
			}
			current = list[i]
		}
	}

	return toFloat(current)
}

func navigateKey(current any, key, path string) (any, error) {
	obj, ok := current.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot navigate path %q: not an object at %q", path, key)
	}
	next, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("cannot navigate path %q: missing key %q", path, key)
	}
	return next, nil
}
