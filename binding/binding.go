package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Lookup resolves a placeholder name to its value. The bool result
// reports whether the name is bound.
type Lookup func(name string) (string, bool)

// Interpolate replaces ${name} placeholders in text using lookup.
// Unbound placeholders are kept verbatim so the caller can detect them.
func Interpolate(text string, lookup Lookup) string {
	if lookup == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name := strings.TrimSpace(groups[1])
		if name == "" {
			return match
		}
		if val, ok := lookup(name); ok {
			return val
		}
		return match
	})
}

// Placeholders returns the distinct placeholder names referenced by text,
// in order of first appearance.
func Placeholders(text string) []string {
	var names []string
	seen := map[string]bool{}
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(groups[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Resolve walks a dotted path like "club.name" or "players[0].name"
// through nested maps and slices, as produced by encoding/json.
func Resolve(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[name]
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
		}
	}
	return current, true
}

// ResolveString is Resolve with the result formatted via fmt.Sprint.
func ResolveString(data any, path string) (string, bool) {
	val, ok := Resolve(data, path)
	if !ok || val == nil {
		return "", false
	}
	return fmt.Sprint(val), true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	var indexes []string
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}
