package plugin

import (
	"context"
	"fmt"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
)

// HealthcheckByCollect is the default health probe: attempt a real collection
// and report whether it succeeded. Variants with a cheaper probe override this.
func HealthcheckByCollect(ctx context.Context, p domain.Plugin, source *domain.Source) (bool, string) {
	if _, err := p.Collect(ctx, source); err != nil {
		return false, fmt.Sprintf("collection failed: %v", err)
	}
	return true, "ok"
}

// ValidateRequired checks a config against the "required" key list of a
// config schema. The list may be []string or, for a JSON-decoded schema,
// []any of strings. Keys must be present and non-nil; value types are the
// variant's concern.
func ValidateRequired(schema, config map[string]any) (bool, string) {
	var required []string
	switch list := schema["required"].(type) {
	case []string:
		required = list
	case []any:
		for _, item := range list {
			if key, ok := item.(string); ok {
				required = append(required, key)
			}
		}
	}

	for _, key := range required {
		v, present := config[key]
		if !present || v == nil {
			return false, fmt.Sprintf("missing required config key: %s", key)
		}
		if s, isString := v.(string); isString && s == "" {
			return false, fmt.Sprintf("missing required config key: %s", key)
		}
	}
	return true, "ok"
}
