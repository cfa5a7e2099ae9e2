package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, opts []Option, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(append([]Option{WithLogger(log.NewTestLogger())}, opts...)...)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func mustRun(t *testing.T, st store.Store, args ...string) string {
	t.Helper()
	res := run(t, []Option{WithStore(st)}, args...)
	require.NoError(t, res.err, "stderr: %s", res.stderr)
	return res.stdout
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func fieldNames(defs []types.FieldDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func TestTypesCommands(t *testing.T) {
	st := store.NewMemoryStore()

	out := mustRun(t, st, "types", "create", "assets", "Laptop", "-d", "Company laptops")
	assert.Contains(t, out, "Laptop created")

	list := decodeJSON[[]types.EntityType](t, mustRun(t, st, "types", "list", "asset", "-o", "json"))
	require.Len(t, list, 1)
	assert.Equal(t, "Company laptops", list[0].Description)

	mustRun(t, st, "types", "update", "asset", "Laptop", "--name", "Notebook")
	got := decodeJSON[types.EntityType](t, mustRun(t, st, "types", "get", "asset", list[0].ID, "-o", "json"))
	assert.Equal(t, "Notebook", got.Name)
	assert.Equal(t, "Company laptops", got.Description)

	history := decodeJSON[[]store.HistoricalVersion](t, mustRun(t, st, "types", "history", "asset", "Notebook", "-o", "json"))
	assert.Len(t, history, 2)

	// table output lists the type too
	assert.Contains(t, mustRun(t, st, "types", "list", "asset"), "Notebook")

	mustRun(t, st, "types", "delete", "asset", "Notebook")
	list = decodeJSON[[]types.EntityType](t, mustRun(t, st, "types", "list", "asset", "-o", "json"))
	assert.Empty(t, list)

	res := run(t, []Option{WithStore(st)}, "types", "list", "gadgets")
	assert.Error(t, res.err)
}

func TestFieldsCommands(t *testing.T) {
	st := store.NewMemoryStore()
	mustRun(t, st, "types", "create", "asset", "Laptop")

	mustRun(t, st, "fields", "add", "asset", "Laptop", "Colour", "--type", "singleselect", "--options", "Red, Blue", "--required")
	mustRun(t, st, "fields", "add", "asset", "Laptop", "RAM", "--type", "Number")
	mustRun(t, st, "fields", "add", "asset", "Laptop", "Notes")

	listFields := func() []types.FieldDefinition {
		return decodeJSON[[]types.FieldDefinition](t, mustRun(t, st, "fields", "list", "asset", "Laptop", "-o", "json"))
	}

	defs := listFields()
	require.Equal(t, []string{"Colour", "RAM", "Notes"}, fieldNames(defs))
	assert.Equal(t, types.FieldTypeSingleSelect, defs[0].FieldType)
	assert.True(t, defs[0].IsRequired)
	colourID := defs[0].ID

	mustRun(t, st, "fields", "move-down", "asset", "Laptop", "Colour")
	assert.Equal(t, []string{"RAM", "Colour", "Notes"}, fieldNames(listFields()))

	mustRun(t, st, "fields", "move-up", "asset", "Laptop", "RAM")
	assert.Equal(t, []string{"RAM", "Colour", "Notes"}, fieldNames(listFields()))

	mustRun(t, st, "fields", "move", "asset", "Laptop", "Notes", "0")
	defs = listFields()
	assert.Equal(t, []string{"Notes", "RAM", "Colour"}, fieldNames(defs))
	for i, d := range defs {
		assert.Equal(t, i, d.SortOrder)
	}

	// renaming keeps the id
	mustRun(t, st, "fields", "set", "asset", "Laptop", "Colour", "--name", "Color", "--required=false")
	defs = listFields()
	assert.Equal(t, "Color", defs[2].Name)
	assert.Equal(t, colourID, defs[2].ID)
	assert.False(t, defs[2].IsRequired)

	// switching to a non-select type drops options
	mustRun(t, st, "fields", "set", "asset", "Laptop", "Color", "--type", "Text")
	defs = listFields()
	assert.Nil(t, defs[2].Options)

	mustRun(t, st, "fields", "remove", "asset", "Laptop", "0")
	assert.Equal(t, []string{"RAM", "Color"}, fieldNames(listFields()))

	res := run(t, []Option{WithStore(st)}, "fields", "remove", "asset", "Laptop", "Ghost")
	assert.Error(t, res.err)
	res = run(t, []Option{WithStore(st)}, "fields", "add", "asset", "Laptop", "Bad", "--type", "Money")
	assert.Error(t, res.err)
}

func TestTemplatesAndInstancesCommands(t *testing.T) {
	st := store.NewMemoryStore()
	mustRun(t, st, "types", "create", "asset", "Laptop")
	mustRun(t, st, "fields", "add", "asset", "Laptop", "Colour", "--type", "SingleSelect", "--options", "Red, Blue", "--required")
	mustRun(t, st, "fields", "add", "asset", "Laptop", "Tags", "--type", "MultiSelect", "--options", "Dev, Sales")

	mustRun(t, st, "templates", "create", "asset", "Laptop", "Standard",
		"--scalar", "locationId=hq", "--value", "Colour=Blue", "--value", "Tags=Dev, Sales")

	tpls := decodeJSON[[]types.Template](t, mustRun(t, st, "templates", "list", "asset", "Laptop", "-o", "json"))
	require.Len(t, tpls, 1)
	assert.Equal(t, "hq", tpls[0].ScalarDefaults.LocationID)
	assert.Len(t, tpls[0].FieldValues, 2)

	// a required field without a template fails with issue output
	res := run(t, []Option{WithStore(st)}, "instances", "create", "asset", "Laptop", "LT-1")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "Colour")

	preview := decodeJSON[catalog.PrefillResult](t, mustRun(t, st,
		"instances", "prefill", "asset", "Laptop", "--template", "Standard", "--scalar", "locationId=lab", "-o", "json"))
	assert.Equal(t, "lab", preview.Scalars.LocationID)
	assert.Empty(t, preview.Issues)

	mustRun(t, st, "instances", "create", "asset", "Laptop", "LT-1", "--template", "Standard", "--value", "Colour=Red")
	insts := decodeJSON[[]types.Instance](t, mustRun(t, st, "instances", "list", "asset", "--type", "Laptop", "-o", "json"))
	require.Len(t, insts, 1)
	inst := insts[0]
	assert.Equal(t, "hq", inst.Scalars.LocationID)
	assert.Len(t, inst.CustomFieldValues, 2)

	out := mustRun(t, st, "instances", "get", "asset", inst.ID)
	assert.Contains(t, out, "Red")
	assert.Contains(t, out, "Dev, Sales")

	mustRun(t, st, "instances", "update", "asset", inst.ID, "--name", "LT-2", "--unset", "Tags")
	got := decodeJSON[types.Instance](t, mustRun(t, st, "instances", "get", "asset", inst.ID, "-o", "json"))
	assert.Equal(t, "LT-2", got.Name)
	assert.Len(t, got.CustomFieldValues, 1)

	mustRun(t, st, "templates", "update", "asset", "Laptop", "Standard", "--name", "Default", "--value", "Colour=Red")
	tpl := decodeJSON[types.Template](t, mustRun(t, st, "templates", "get", "asset", "Laptop", "Default", "-o", "json"))
	assert.Equal(t, "Default", tpl.Name)

	// types with instances cannot be deleted
	res = run(t, []Option{WithStore(st)}, "types", "delete", "asset", "Laptop")
	assert.ErrorIs(t, res.err, catalog.ErrTypeInUse)

	mustRun(t, st, "instances", "delete", "asset", inst.ID)
	mustRun(t, st, "templates", "delete", "asset", "Laptop", "Default")
	tpls = decodeJSON[[]types.Template](t, mustRun(t, st, "templates", "list", "asset", "Laptop", "-o", "json"))
	assert.Empty(t, tpls)

	res = run(t, []Option{WithStore(st)}, "templates", "create", "asset", "Laptop", "Bad", "--value", "nokeyvalue")
	assert.Error(t, res.err)
}

const testCatalog = `types:
  - name: Server
    kind: asset
    fields:
      - name: Rack
        type: Text
        required: true
templates:
  - name: Rack A
    kind: asset
    type: Server
    values:
      Rack: A1
`

func TestApplyCommand(t *testing.T) {
	st := store.NewMemoryStore()
	dir := t.TempDir()
	good := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(good, []byte(testCatalog), 0o600))

	out := mustRun(t, st, "apply", "-f", good, "--dry-run")
	assert.Contains(t, out, "is valid")
	list := decodeJSON[[]types.EntityType](t, mustRun(t, st, "types", "list", "asset", "-o", "json"))
	assert.Empty(t, list)

	res := decodeJSON[catalog.ApplyResult](t, mustRun(t, st, "apply", "-f", good, "-o", "json"))
	assert.Equal(t, []string{"asset/Server"}, res.TypesCreated)
	assert.Equal(t, []string{"asset/Server/Rack A"}, res.TemplatesCreated)

	res = decodeJSON[catalog.ApplyResult](t, mustRun(t, st, "apply", "-f", good, "-o", "json"))
	assert.Equal(t, []string{"asset/Server"}, res.TypesUpdated)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("types:\n  - name: X\n    kind: asset\n    fields:\n      - name: F\n        type: Money\n"), 0o600))
	r := run(t, []Option{WithStore(st)}, "apply", "-f", bad)
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "Money")
	assert.Contains(t, r.stderr, "line 2")

	r = run(t, []Option{WithStore(st)}, "apply")
	assert.Error(t, r.err)
}

func TestCommandsPersistInDataDir(t *testing.T) {
	dataDir := t.TempDir()

	res := run(t, nil, "--data-dir", dataDir, "types", "create", "certs", "TLS")
	require.NoError(t, res.err, res.stderr)

	res = run(t, nil, "--data-dir", dataDir, "types", "list", "certificate", "-o", "json")
	require.NoError(t, res.err, res.stderr)
	list := decodeJSON[[]types.EntityType](t, res.stdout)
	require.Len(t, list, 1)
	assert.Equal(t, "TLS", list[0].Name)
}

func TestVersionCommand(t *testing.T) {
	res := run(t, nil, "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "stockroom")
}
