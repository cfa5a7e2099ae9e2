package types

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `types:
  - name: Laptop
    kind: asset
    description: Company laptops
    fields:
      - name: Colour
        type: singleselect
        options: [Red, Blue]
        required: true
      - name: Tags
        type: MultiSelect
        options: "Dev, Sales"
      - name: RAM
        type: Number
        options: [ignored]
templates:
  - name: Standard
    kind: asset
    type: Laptop
    scalars:
      locationId: hq
    values:
      Colour: Blue
      Tags: [Dev]
      RAM: ~
`

func TestParseCatalogFile(t *testing.T) {
	cf, err := ParseCatalogFileFromBytes([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, cf.Types, 1)
	require.Len(t, cf.Templates, 1)
	assert.Empty(t, cf.Lint())

	line, ok := cf.GetLineInfo("type", EntityKindAsset, "Laptop")
	assert.True(t, ok)
	assert.Equal(t, 2, line)
	line, ok = cf.GetLineInfo("template", EntityKindAsset, "Standard")
	assert.True(t, ok)
	assert.Equal(t, 17, line)

	et, err := cf.Types[0].ToEntityType()
	require.NoError(t, err)
	require.Len(t, et.CustomFields, 3)
	assert.Equal(t, FieldTypeSingleSelect, et.CustomFields[0].FieldType)
	assert.Equal(t, `["Red","Blue"]`, StringValue(et.CustomFields[0].Options))
	assert.Equal(t, "Dev, Sales", StringValue(et.CustomFields[1].Options))
	assert.Nil(t, et.CustomFields[2].Options)
	for i, def := range et.CustomFields {
		assert.Equal(t, i, def.SortOrder)
	}

	tpl := cf.Templates[0]
	assert.Equal(t, "hq", tpl.Scalars.LocationID)
	assert.Equal(t, "Blue", StringValue(tpl.Values["Colour"].Scalar))
	assert.True(t, tpl.Values["Tags"].IsList())
	assert.Equal(t, []string{"Dev"}, tpl.Values["Tags"].List)
	assert.Nil(t, tpl.Values["RAM"].Scalar)
	assert.False(t, tpl.Values["RAM"].IsList())
}

func TestParseCatalogFileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	cf, err := ParseCatalogFile(path)
	require.NoError(t, err)
	assert.Len(t, cf.Types, 1)

	_, err = ParseCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseCatalogFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"not yaml", "types: [", "failed to parse YAML"},
		{"not a mapping", "- a\n- b\n", "mapping"},
		{"unknown key", "services:\n  - name: x\n", "unknown top-level key 'services' at line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalogFileFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseEmptyCatalog(t *testing.T) {
	cf, err := ParseCatalogFileFromBytes(nil)
	require.NoError(t, err)
	assert.Empty(t, cf.Types)
	assert.Empty(t, cf.Lint())
}

func TestCatalogLint(t *testing.T) {
	doc := `types:
  - name: Laptop
    kind: asset
    fields:
      - name: A
        type: Money
  - name: Phone
    kind: asset
  - name: phone
    kind: asset
  - name: Thing
    kind: widgets
templates:
  - name: Std
    kind: asset
  - name: Cheap
    kind: asset
    type: Phone
    scalars:
      purchaseCost: "-5"
  - name: ""
    kind: asset
    type: Phone
`

	cf, err := ParseCatalogFileFromBytes([]byte(doc))
	require.NoError(t, err)
	errs := cf.Lint()

	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, `type "Laptop" (kind="asset") at line 2`)
	assert.Contains(t, joined, "Money")
	assert.Contains(t, joined, "declared more than once")
	assert.Contains(t, joined, "unknown entity kind: widgets")
	assert.Contains(t, joined, "template type is required")
	assert.Contains(t, joined, "purchaseCost")
	assert.Contains(t, joined, "template name is required")
	assert.Len(t, errs, 6)
}

func TestCatalogSectionMustBeList(t *testing.T) {
	cf, err := ParseCatalogFileFromBytes([]byte("types:\n  name: Laptop\n"))
	require.NoError(t, err)
	errs := cf.ParseErrors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "must be a list")
	assert.Len(t, cf.Lint(), 1)
}
