package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldType(t *testing.T) {
	for _, in := range []string{"multiselect", "MultiSelect", "MULTISELECT"} {
		ft, err := ParseFieldType(in)
		require.NoError(t, err)
		assert.Equal(t, FieldTypeMultiSelect, ft)
	}
	ft, err := ParseFieldType("url")
	require.NoError(t, err)
	assert.Equal(t, FieldTypeURL, ft)

	_, err = ParseFieldType("Money")
	assert.True(t, IsValidationError(err))

	assert.True(t, FieldTypeSingleSelect.HasOptions())
	assert.False(t, FieldTypeBoolean.HasOptions())
	assert.Len(t, FieldTypes(), 7)
}

func TestValidateDefinitions(t *testing.T) {
	valid := []FieldDefinition{
		{ID: "a", Name: "Colour", FieldType: FieldTypeSingleSelect, SortOrder: 1},
		{ID: "b", Name: "RAM", FieldType: FieldTypeNumber, SortOrder: 0},
	}
	assert.NoError(t, ValidateDefinitions(valid))
	assert.NoError(t, ValidateDefinitions(nil))

	tests := []struct {
		name string
		defs []FieldDefinition
	}{
		{"blank name", []FieldDefinition{{Name: " ", FieldType: FieldTypeText}}},
		{"unknown type", []FieldDefinition{{Name: "X", FieldType: "Money"}}},
		{"duplicate name ignoring case", []FieldDefinition{
			{Name: "Colour", FieldType: FieldTypeText, SortOrder: 0},
			{Name: "colour", FieldType: FieldTypeText, SortOrder: 1},
		}},
		{"duplicate id", []FieldDefinition{
			{ID: "a", Name: "A", FieldType: FieldTypeText, SortOrder: 0},
			{ID: "a", Name: "B", FieldType: FieldTypeText, SortOrder: 1},
		}},
		{"sort order out of range", []FieldDefinition{{Name: "A", FieldType: FieldTypeText, SortOrder: 1}}},
		{"duplicate sort order", []FieldDefinition{
			{Name: "A", FieldType: FieldTypeText, SortOrder: 0},
			{Name: "B", FieldType: FieldTypeText, SortOrder: 0},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDefinitions(tt.defs)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestSortDefinitionsIsStableCopy(t *testing.T) {
	defs := []FieldDefinition{
		{Name: "C", SortOrder: 2},
		{Name: "A", SortOrder: 0},
		{Name: "B", SortOrder: 1},
	}
	sorted := SortDefinitions(defs)
	assert.Equal(t, "A", sorted[0].Name)
	assert.Equal(t, "C", sorted[2].Name)
	assert.Equal(t, "C", defs[0].Name)
}

func TestEntityTypeLookups(t *testing.T) {
	et := &EntityType{
		Kind: EntityKindAsset,
		Name: "Laptop",
		CustomFields: []FieldDefinition{
			{ID: "x", Name: "Colour", FieldType: FieldTypeText, SortOrder: 0},
		},
	}
	require.NoError(t, et.Validate())

	def, ok := et.FieldByName("colour")
	assert.True(t, ok)
	assert.Equal(t, "x", def.ID)
	_, ok = et.FieldByID("y")
	assert.False(t, ok)

	et.Kind = "widget"
	assert.Error(t, et.Validate())
}

func TestScalarFields(t *testing.T) {
	var s ScalarFields
	require.NoError(t, s.Set(ScalarLocationID, "hq"))
	v, err := s.Get(ScalarLocationID)
	require.NoError(t, err)
	assert.Equal(t, "hq", v)
	assert.Error(t, s.Set("colour", "red"))

	s.PurchaseCost = "12.50"
	s.DepreciationMonths = "36"
	assert.NoError(t, s.Validate())
	s.DepreciationMonths = "3.5"
	assert.Error(t, s.Validate())
	s.DepreciationMonths = ""
	s.PurchaseCost = "-1"
	assert.Error(t, s.Validate())
}

func TestParseEntityKind(t *testing.T) {
	for in, want := range map[string]EntityKind{
		"assets": EntityKindAsset,
		"apps":   EntityKindApplication,
		"cert":   EntityKindCertificate,
	} {
		got, err := ParseEntityKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseEntityKind("gadget")
	assert.Error(t, err)
}
