// Package template renders device state templates such as "{{ state.some.path }}".
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anicoll/smarthome-mcp/internal/pkg/model"
)

var (
	pathPlaceholder = regexp.MustCompile(`{{\s*state((?:\.[A-Za-z0-9_]+)+)\s*}}`)
	barePlaceholder = regexp.MustCompile(`{{\s*state\s*}}`)
)

// Render substitutes every placeholder in tmpl with the matching part of value.
// A path that cannot be walked renders as an empty string. Text that is not a
// placeholder is passed through unchanged.
func Render(tmpl string, value any) string {
	out := pathPlaceholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		path := pathPlaceholder.FindStringSubmatch(match)[1]
		resolved, ok := walk(value, splitPath(path))
		if !ok || resolved == nil {
			return ""
		}
		return stringify(resolved)
	})
	return barePlaceholder.ReplaceAllLiteralString(out, stringify(value))
}

func splitPath(path string) []string {
	// path always starts with a dot, e.g. ".a.b"
	return strings.Split(path[1:], ".")
}

func walk(value any, keys []string) (any, bool) {
	current := value
	for _, key := range keys {
		switch node := current.(type) {
		case map[string]any:
			next, exists := node[key]
			if !exists {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case model.State:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
