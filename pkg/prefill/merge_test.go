package prefill

import (
	"testing"

	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func laptopTemplate() *types.Template {
	return &types.Template{
		ID:          "tpl-standard",
		Name:        "Standard laptop",
		Kind:        types.EntityKindAsset,
		OwnerTypeID: "type-laptop",
		ScalarDefaults: types.ScalarFields{
			PurchaseCost:       "1200",
			DepreciationMonths: "36",
			LocationID:         "loc-9",
		},
		FieldValues: []types.FieldValue{
			{FieldDefinitionID: "f-colour", Value: types.StringPtr("Silver")},
			{FieldDefinitionID: "f-tags", Value: types.StringPtr(`["Loaner"]`)},
			{FieldDefinitionID: "f-empty", Value: types.StringPtr("")},
			{FieldDefinitionID: "f-none", Value: types.StringPtr(fields.NoneSentinel)},
		},
	}
}

func TestApplyFillsEmptyScalar(t *testing.T) {
	form := NewForm()
	res := Apply(form, &types.Template{ScalarDefaults: types.ScalarFields{LocationID: "loc-9"}})
	assert.Equal(t, "loc-9", form.Scalars.LocationID)
	assert.Equal(t, []string{types.ScalarLocationID}, res.Scalars)
}

func TestApplyKeepsUserScalar(t *testing.T) {
	form := NewForm()
	form.Scalars.LocationID = "loc-1"
	res := Apply(form, &types.Template{ScalarDefaults: types.ScalarFields{LocationID: "loc-9"}})
	assert.Equal(t, "loc-1", form.Scalars.LocationID)
	assert.False(t, res.Changed())
}

func TestApplyFieldValues(t *testing.T) {
	form := NewForm()
	form.Values.Set("f-colour", types.StringPtr("Black"))
	form.Values.Set("f-tags", types.StringPtr(fields.NoneSentinel))

	res := Apply(form, laptopTemplate())

	colour, _ := form.Values.Get("f-colour")
	assert.Equal(t, "Black", *colour, "user value is never overwritten")

	tags, _ := form.Values.Get("f-tags")
	assert.Equal(t, `["Loaner"]`, *tags, "sentinel counts as empty")

	_, ok := form.Values.Get("f-empty")
	assert.False(t, ok, "empty template values are not copied")
	_, ok = form.Values.Get("f-none")
	assert.False(t, ok)

	assert.Equal(t, []string{"f-tags"}, res.Fields)
	assert.ElementsMatch(t, []string{types.ScalarPurchaseCost, types.ScalarDepreciationMonths, types.ScalarLocationID}, res.Scalars)
}

func TestApplyIsIdempotent(t *testing.T) {
	form := NewForm()
	Apply(form, laptopTemplate())
	before := form.Clone()

	res := Apply(form, laptopTemplate())
	assert.False(t, res.Changed())
	assert.Equal(t, before.Scalars, form.Scalars)
	assert.Equal(t, before.Values.ToSubmission(), form.Values.ToSubmission())
}

func TestApplyIsCumulative(t *testing.T) {
	form := NewForm()
	Apply(form, &types.Template{
		ScalarDefaults: types.ScalarFields{Notes: "first"},
		FieldValues:    []types.FieldValue{{FieldDefinitionID: "a", Value: types.StringPtr("1")}},
	})
	Apply(form, &types.Template{
		ScalarDefaults: types.ScalarFields{Notes: "second", LocationID: "loc-2"},
		FieldValues: []types.FieldValue{
			{FieldDefinitionID: "a", Value: types.StringPtr("2")},
			{FieldDefinitionID: "b", Value: types.StringPtr("3")},
		},
	})

	assert.Equal(t, "first", form.Scalars.Notes)
	assert.Equal(t, "loc-2", form.Scalars.LocationID)
	assert.Equal(t, []types.FieldValue{
		{FieldDefinitionID: "a", Value: types.StringPtr("1")},
		{FieldDefinitionID: "b", Value: types.StringPtr("3")},
	}, form.Values.ToSubmission())

	// once the user empties a field, the next template fills it again
	form.Scalars.Notes = ""
	Apply(form, &types.Template{ScalarDefaults: types.ScalarFields{Notes: "third"}})
	assert.Equal(t, "third", form.Scalars.Notes)
}

func TestApplyIgnoresOwnerType(t *testing.T) {
	form := NewForm()
	tpl := laptopTemplate()
	tpl.OwnerTypeID = "some-other-type"
	res := Apply(form, tpl)
	require.True(t, res.Changed())
}

func TestApplyNil(t *testing.T) {
	assert.False(t, Apply(nil, laptopTemplate()).Changed())
	assert.False(t, Apply(NewForm(), nil).Changed())

	form := &Form{}
	Apply(form, laptopTemplate())
	assert.NotNil(t, form.Values)
}
