package fields

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseOptions decodes a raw option string into its ordered labels.
//
// A JSON array is preferred; anything else is split on commas, so
// "[Legacy] Red, Blue" still yields two labels. Labels are trimmed and
// empties dropped. Input with no usable label yields an empty list, never an
// error.
func ParseOptions(options *string) []string {
	if options == nil {
		return []string{}
	}
	raw := strings.TrimSpace(*options)
	if raw == "" {
		return []string{}
	}

	if labels, ok := parseJSONLabels(raw); ok {
		return labels
	}

	labels := []string{}
	for _, part := range strings.Split(raw, ",") {
		if label := strings.TrimSpace(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// parseJSONLabels reads a JSON array of labels. Non-string elements are
// stringified so `[1, 2]` becomes "1", "2".
func parseJSONLabels(raw string) ([]string, bool) {
	if !gjson.Valid(raw) {
		return nil, false
	}
	result := gjson.Parse(raw)
	if !result.IsArray() {
		return nil, false
	}
	labels := []string{}
	result.ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.Null {
			return true
		}
		if label := strings.TrimSpace(item.String()); label != "" {
			labels = append(labels, label)
		}
		return true
	})
	return labels, true
}

// FormatOptions encodes labels as the JSON array form stored on a definition.
// An empty list encodes to nil.
func FormatOptions(labels []string) *string {
	clean := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			clean = append(clean, l)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	s := marshalLabels(clean)
	return &s
}

// marshalLabels writes labels as a compact JSON array without HTML escaping,
// so "R&D" stays readable in storage.
func marshalLabels(labels []string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(labels); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
