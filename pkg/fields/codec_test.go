package fields

import (
	"testing"

	"github.com/rzbill/stockroom/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
	}{
		{"text", TextValue(types.FieldTypeText, "hello, world")},
		{"text unset", TextValue(types.FieldTypeText, "")},
		{"number", TextValue(types.FieldTypeNumber, "12.50")},
		{"date", TextValue(types.FieldTypeDate, "2024-02-29")},
		{"url", TextValue(types.FieldTypeURL, "https://example.com/a?b=c")},
		{"single select", TextValue(types.FieldTypeSingleSelect, "Red")},
		{"boolean true", BoolValue(true)},
		{"boolean false", BoolValue(false)},
		{"multi select", SelectionValue("A", "B")},
		{"multi select with symbols", SelectionValue("R&D", `say "hi"`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.v.Type, nil, Encode(tt.v))
			assert.Equal(t, tt.v, got)
		})
	}
}

func TestEncode(t *testing.T) {
	assert.Nil(t, Encode(TextValue(types.FieldTypeText, "")))
	assert.Equal(t, "false", *Encode(Value{Type: types.FieldTypeBoolean}))
	assert.Equal(t, "true", *Encode(BoolValue(true)))
	assert.Equal(t, `["A","B"]`, *Encode(SelectionValue("A", "B")))
	assert.Equal(t, "", *Encode(SelectionValue()), "empty selection must encode to empty string, not []")
	assert.Equal(t, `["R&D"]`, *Encode(SelectionValue("R&D")))
}

func TestDecodeMissingBooleanReadsFalse(t *testing.T) {
	v := Decode(types.FieldTypeBoolean, nil, nil)
	assert.True(t, v.Set)
	assert.False(t, v.Bool)

	v = Decode(types.FieldTypeBoolean, nil, types.StringPtr("yes"))
	assert.False(t, v.Bool)
}

func TestDecodeMultiSelectEmptyMatchesUnset(t *testing.T) {
	unset := Decode(types.FieldTypeMultiSelect, nil, nil)
	empty := Decode(types.FieldTypeMultiSelect, nil, Encode(SelectionValue()))
	assert.Equal(t, unset, empty)
	assert.False(t, empty.Set)
}

func TestDecodeMalformedMultiSelect(t *testing.T) {
	for _, raw := range []string{`["A",`, "A,B", `{"a":1}`, "[]"} {
		v := Decode(types.FieldTypeMultiSelect, nil, types.StringPtr(raw))
		assert.Empty(t, v.Selected, "raw %q", raw)
		assert.False(t, v.Set, "raw %q", raw)
	}
}

func TestDecodePermissiveSelections(t *testing.T) {
	opts := types.StringPtr("A,B")
	v := Decode(types.FieldTypeMultiSelect, opts, types.StringPtr(`["A","B","C"]`))
	assert.Equal(t, []string{"A", "B", "C"}, v.Selected)
	assert.Equal(t, []string{"C"}, Orphans(v, ParseOptions(opts)))

	s := Decode(types.FieldTypeSingleSelect, types.StringPtr("Red,Blue"), types.StringPtr("Green"))
	assert.Equal(t, "Green", s.Text)
	assert.Equal(t, []string{"Green"}, Orphans(s, []string{"Red", "Blue"}))
	assert.Empty(t, Orphans(TextValue(types.FieldTypeSingleSelect, "Red"), []string{"Red", "Blue"}))
}

func TestValueAccessors(t *testing.T) {
	n, ok := TextValue(types.FieldTypeNumber, "3.25").Number()
	require.True(t, ok)
	assert.Equal(t, 3.25, n)

	_, ok = TextValue(types.FieldTypeNumber, "three").Number()
	assert.False(t, ok)

	d, ok := TextValue(types.FieldTypeDate, "2025-01-31").Date()
	require.True(t, ok)
	assert.Equal(t, 2025, d.Year())

	_, ok = TextValue(types.FieldTypeDate, "2025-01-31T10:00:00Z").Date()
	assert.True(t, ok)

	_, ok = TextValue(types.FieldTypeText, "2025-01-31").Date()
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	v, err := Parse(types.FieldTypeBoolean, "true")
	require.NoError(t, err)
	assert.True(t, v.Bool)

	_, err = Parse(types.FieldTypeBoolean, "maybe")
	assert.Error(t, err)

	v, err = Parse(types.FieldTypeMultiSelect, "A, B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, v.Selected)

	v, err = Parse(types.FieldTypeMultiSelect, `["A","B"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, v.Selected)

	v, err = Parse(types.FieldTypeSingleSelect, NoneSentinel)
	require.NoError(t, err)
	assert.False(t, v.Set)

	_, err = Parse(types.FieldType("Colour"), "x")
	assert.Error(t, err)
}

func TestCheckFormat(t *testing.T) {
	assert.Empty(t, checkFormat(TextValue(types.FieldTypeNumber, "-4.5")))
	assert.NotEmpty(t, checkFormat(TextValue(types.FieldTypeNumber, "1,000")))
	assert.Empty(t, checkFormat(TextValue(types.FieldTypeDate, "2024-12-01")))
	assert.NotEmpty(t, checkFormat(TextValue(types.FieldTypeDate, "01/12/2024")))
	assert.Empty(t, checkFormat(TextValue(types.FieldTypeURL, "https://vendor.example/warranty")))
	assert.NotEmpty(t, checkFormat(TextValue(types.FieldTypeURL, "vendor.example/warranty")))
	assert.Empty(t, checkFormat(TextValue(types.FieldTypeNumber, "")), "empty values are a required concern")
}
