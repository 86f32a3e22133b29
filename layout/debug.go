package layout

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON dumps v as indented JSON for debugging or
// visualization tooling.
func WriteDebugJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
