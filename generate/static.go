package generate

import "context"

// StaticProvider is an in-memory EntityDataProvider keyed by entity ID,
// for CLI use and tests.
type StaticProvider map[string]map[string]any

var _ EntityDataProvider = StaticProvider{}

// Attributes returns the bundle for entityID; unknown IDs yield an
// empty bundle rather than an error, so optional entities stay optional.
func (p StaticProvider) Attributes(ctx context.Context, entityID string) (map[string]any, error) {
	if attrs, ok := p[entityID]; ok {
		return attrs, nil
	}
	return map[string]any{}, nil
}
