package store

import (
	"context"
	"testing"

	"github.com/rzbill/stockroom/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreTransaction(t *testing.T) {
	exerciseTransaction(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type doc struct {
		Tags []string `json:"tags"`
	}
	in := doc{Tags: []string{"a"}}
	require.NoError(t, s.Create(ctx, types.ResourceTypeTemplate, "t", "d", &in))
	in.Tags[0] = "mutated"

	var out doc
	require.NoError(t, s.Get(ctx, types.ResourceTypeTemplate, "t", "d", &out))
	assert.Equal(t, []string{"a"}, out.Tags)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "instance/asset/i-1", string(MakeKey(types.ResourceTypeInstance, "asset", "i-1")))
	assert.Equal(t, "instance/asset/", string(MakePrefix(types.ResourceTypeInstance, "asset")))
	assert.Equal(t, "instance/", string(MakePrefix(types.ResourceTypeInstance, AllNamespaces)))

	rt, ns, name, ok := ParseKey(MakeKey(types.ResourceTypeTemplate, "type-1", "tpl-1"))
	require.True(t, ok)
	assert.Equal(t, []string{"template", "type-1", "tpl-1"}, []string{rt, ns, name})

	_, _, _, ok = ParseKey([]byte("nope"))
	assert.False(t, ok)
}
