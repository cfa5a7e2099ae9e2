// Package fields implements the custom field engine: the per-type value
// codec, the definition registry used by type editors and the value bag
// carried by instances and templates.
package fields

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rzbill/stockroom/pkg/types"
	"github.com/tidwall/gjson"
)

// NoneSentinel is what select inputs submit for "no selection".
const NoneSentinel = "__none__"

// DateLayout is the stored form of a Date field.
const DateLayout = "2006-01-02"

// Value is the typed, editor-facing form of one stored field value.
//
// Set is false when the stored slot is null or empty. Boolean values are
// always Set because a missing boolean reads as false.
type Value struct {
	Type     types.FieldType
	Set      bool
	Text     string
	Bool     bool
	Selected []string
}

// TextValue builds a value for the string-backed types (Text, Number, Date,
// Url, SingleSelect).
func TextValue(ft types.FieldType, s string) Value {
	return Value{Type: ft, Set: s != "", Text: s}
}

// BoolValue builds a Boolean value.
func BoolValue(b bool) Value {
	return Value{Type: types.FieldTypeBoolean, Set: true, Bool: b}
}

// SelectionValue builds a MultiSelect value.
func SelectionValue(labels ...string) Value {
	sel := make([]string, len(labels))
	copy(sel, labels)
	return Value{Type: types.FieldTypeMultiSelect, Set: len(sel) > 0, Selected: sel}
}

// Number parses a Number value.
func (v Value) Number() (float64, bool) {
	if !v.Set || v.Type != types.FieldTypeNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Date parses a Date value. Plain dates and RFC 3339 timestamps are accepted.
func (v Value) Date() (time.Time, bool) {
	if !v.Set || v.Type != types.FieldTypeDate {
		return time.Time{}, false
	}
	return parseDate(v.Text)
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Type {
	case types.FieldTypeBoolean:
		return strconv.FormatBool(v.Bool)
	case types.FieldTypeMultiSelect:
		return strings.Join(v.Selected, ", ")
	}
	return v.Text
}

// Decode turns a stored string into a typed value. Decoding is permissive:
// options never filter the result, so select labels that were removed from
// the option list stay displayable (see Orphans). Malformed MultiSelect JSON
// decodes to an empty selection.
func Decode(ft types.FieldType, options *string, raw *string) Value {
	s := types.StringValue(raw)
	switch ft {
	case types.FieldTypeBoolean:
		return BoolValue(s == "true")
	case types.FieldTypeMultiSelect:
		return SelectionValue(decodeSelection(s)...)
	}
	return TextValue(ft, s)
}

// Encode turns a typed value into its stored string. Boolean never encodes to
// nil; an empty MultiSelect encodes to "" rather than "[]".
func Encode(v Value) *string {
	switch v.Type {
	case types.FieldTypeBoolean:
		return types.StringPtr(strconv.FormatBool(v.Bool))
	case types.FieldTypeMultiSelect:
		if len(v.Selected) == 0 {
			return types.StringPtr("")
		}
		return types.StringPtr(marshalLabels(v.Selected))
	}
	if v.Text == "" {
		return nil
	}
	return types.StringPtr(v.Text)
}

// Parse reads user input (a CLI flag or form text) for a field type.
// MultiSelect input may be a JSON array or a comma separated list.
func Parse(ft types.FieldType, input string) (Value, error) {
	switch ft {
	case types.FieldTypeBoolean:
		in := strings.TrimSpace(input)
		if in == "" {
			return BoolValue(false), nil
		}
		b, err := strconv.ParseBool(in)
		if err != nil {
			return Value{}, fmt.Errorf("invalid boolean %q", input)
		}
		return BoolValue(b), nil
	case types.FieldTypeMultiSelect:
		return SelectionValue(ParseOptions(&input)...), nil
	case types.FieldTypeSingleSelect:
		if strings.TrimSpace(input) == NoneSentinel {
			return TextValue(ft, ""), nil
		}
	}
	if !ft.IsValid() {
		return Value{}, fmt.Errorf("unknown field type %q", ft)
	}
	return TextValue(ft, input), nil
}

// Orphans returns the selected labels that are not in options, in selection
// order. Only select types can have orphans.
func Orphans(v Value, options []string) []string {
	var out []string
	switch v.Type {
	case types.FieldTypeSingleSelect:
		if v.Set && !containsLabel(options, v.Text) {
			out = append(out, v.Text)
		}
	case types.FieldTypeMultiSelect:
		for _, label := range v.Selected {
			if !containsLabel(options, label) {
				out = append(out, label)
			}
		}
	}
	return out
}

// checkFormat reports a problem with a non-empty value of a typed field.
func checkFormat(v Value) string {
	if !v.Set {
		return ""
	}
	switch v.Type {
	case types.FieldTypeNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64); err != nil {
			return fmt.Sprintf("%q is not a number", v.Text)
		}
	case types.FieldTypeDate:
		if _, ok := parseDate(v.Text); !ok {
			return fmt.Sprintf("%q is not a date (expected YYYY-MM-DD)", v.Text)
		}
	case types.FieldTypeURL:
		u, err := url.Parse(strings.TrimSpace(v.Text))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Sprintf("%q is not an absolute URL", v.Text)
		}
	}
	return ""
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// decodeSelection reads a stored MultiSelect value. Labels are kept verbatim.
func decodeSelection(raw string) []string {
	if raw == "" || !gjson.Valid(raw) {
		return nil
	}
	result := gjson.Parse(raw)
	if !result.IsArray() {
		return nil
	}
	var labels []string
	result.ForEach(func(_, item gjson.Result) bool {
		if item.Type != gjson.Null {
			labels = append(labels, item.String())
		}
		return true
	})
	return labels
}
