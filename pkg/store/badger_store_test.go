package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a test BadgerDB store with a temporary directory.
func setupTestStore(t *testing.T) (*BadgerStore, func()) {
	dir, err := os.MkdirTemp("", "badger-test")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}

	s := NewBadgerStore(log.NewTestLogger())
	if err := s.Open(dir); err != nil {
		os.RemoveAll(dir)
		t.Fatalf("Failed to open BadgerDB store: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.RemoveAll(dir)
	}
	return s, cleanup
}

type widget struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// exerciseStore runs the behaviour every Store implementation shares.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	rt := types.ResourceTypeEntityType

	w := widget{ID: "w1", Name: "Laptop", Count: 1}
	require.NoError(t, s.Create(ctx, rt, "asset", w.ID, w))

	err := s.Create(ctx, rt, "asset", w.ID, w)
	require.Error(t, err)
	assert.True(t, IsAlreadyExistsError(err))

	var got widget
	require.NoError(t, s.Get(ctx, rt, "asset", "w1", &got))
	assert.Equal(t, w, got)

	err = s.Get(ctx, rt, "asset", "missing", &got)
	assert.True(t, IsNotFoundError(err))
	assert.True(t, errors.Is(err, ErrNotFound))

	w.Count = 2
	require.NoError(t, s.Update(ctx, rt, "asset", w.ID, w))
	require.NoError(t, s.Get(ctx, rt, "asset", "w1", &got))
	assert.Equal(t, 2, got.Count)
	assert.True(t, IsNotFoundError(s.Update(ctx, rt, "asset", "missing", w)))

	// a namespace that shares a prefix must not leak into the listing
	require.NoError(t, s.Create(ctx, rt, "asset", "w2", widget{ID: "w2", Name: "Phone"}))
	require.NoError(t, s.Create(ctx, rt, "assets", "w3", widget{ID: "w3", Name: "Other"}))
	require.NoError(t, s.Create(ctx, types.ResourceTypeTemplate, "asset", "t1", widget{ID: "t1"}))

	var list []widget
	require.NoError(t, s.List(ctx, rt, "asset", &list))
	require.Len(t, list, 2)
	assert.Equal(t, "w1", list[0].ID)
	assert.Equal(t, "w2", list[1].ID)

	var all []widget
	require.NoError(t, s.List(ctx, rt, AllNamespaces, &all))
	assert.Len(t, all, 3)

	var none []widget
	require.NoError(t, s.List(ctx, rt, "certificate", &none))
	assert.NotNil(t, none)
	assert.Len(t, none, 0)

	history, err := s.GetHistory(ctx, rt, "asset", "w1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	newest, ok := history[0].Resource.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), newest["count"])
	assert.False(t, history[0].Timestamp.Before(history[1].Timestamp))

	require.NoError(t, s.Delete(ctx, rt, "asset", "w1"))
	assert.True(t, IsNotFoundError(s.Get(ctx, rt, "asset", "w1", &got)))
	assert.True(t, IsNotFoundError(s.Delete(ctx, rt, "asset", "w1")))

	history, err = s.GetHistory(ctx, rt, "asset", "w1")
	require.NoError(t, err)
	assert.Len(t, history, 2, "history survives deletion")
}

func exerciseTransaction(t *testing.T, s Store) {
	ctx := context.Background()
	rt := types.ResourceTypeInstance

	require.NoError(t, s.Create(ctx, rt, "asset", "keep", widget{ID: "keep"}))

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Transaction) error {
		if err := tx.Create(rt, "asset", "staged", widget{ID: "staged"}); err != nil {
			return err
		}
		if err := tx.Delete(rt, "asset", "keep"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var w widget
	assert.NoError(t, s.Get(ctx, rt, "asset", "keep", &w), "rolled back delete")
	assert.True(t, IsNotFoundError(s.Get(ctx, rt, "asset", "staged", &w)), "rolled back create")

	err = s.Transaction(ctx, func(tx Transaction) error {
		var cur widget
		if err := tx.Get(rt, "asset", "keep", &cur); err != nil {
			return err
		}
		cur.Count = 7
		if err := tx.Update(rt, "asset", "keep", cur); err != nil {
			return err
		}
		return tx.Create(rt, "asset", "staged", widget{ID: "staged"})
	})
	require.NoError(t, err)
	require.NoError(t, s.Get(ctx, rt, "asset", "keep", &w))
	assert.Equal(t, 7, w.Count)
	assert.NoError(t, s.Get(ctx, rt, "asset", "staged", &w))
}

func TestBadgerStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	exerciseStore(t, s)
}

func TestBadgerStoreTransaction(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	exerciseTransaction(t, s)
}

func TestBadgerStoreInMemory(t *testing.T) {
	s := NewBadgerStoreWithOptions(log.NewTestLogger(), StoreOptions{InMemory: true, KeepHistory: true})
	require.NoError(t, s.Open(""))
	defer s.Close()

	exerciseStore(t, s)

	rewritten, err := s.RunGC()
	require.NoError(t, err)
	assert.Equal(t, 0, rewritten)
}

func TestBadgerStoreWithoutHistory(t *testing.T) {
	s := NewBadgerStoreWithOptions(log.NewTestLogger(), StoreOptions{InMemory: true})
	require.NoError(t, s.Open(""))
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Create(ctx, types.ResourceTypeInstance, "asset", "a", widget{ID: "a"}))
	history, err := s.GetHistory(ctx, types.ResourceTypeInstance, "asset", "a")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBadgerStoreRunGC(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.RunGC()
	assert.NoError(t, err)

	require.NoError(t, s.Close())
	_, err = s.RunGC()
	assert.Error(t, err)
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir, err := os.MkdirTemp("", "badger-reopen")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	ctx := context.Background()
	s := NewBadgerStore(log.NewTestLogger())
	require.NoError(t, s.Open(dir))
	require.NoError(t, s.Create(ctx, types.ResourceTypeEntityType, "asset", "t1", widget{ID: "t1", Name: "Laptop"}))
	require.NoError(t, s.Close())

	s = NewBadgerStore(log.NewTestLogger())
	require.NoError(t, s.Open(dir))
	defer s.Close()

	var w widget
	require.NoError(t, s.Get(ctx, types.ResourceTypeEntityType, "asset", "t1", &w))
	assert.Equal(t, "Laptop", w.Name)
}
