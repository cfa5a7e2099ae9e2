package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/stockroom/pkg/types"
)

// Validate that MemoryStore implements the Store interface
var _ Store = &MemoryStore{}

// MemoryStore is an in-memory Store for tests and ephemeral runs. Values are
// kept as JSON so callers never share memory with the store.
type MemoryStore struct {
	mutex    sync.RWMutex
	data     map[string][]byte
	versions map[string][]versionRecord
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		versions: make(map[string][]versionRecord),
	}
}

// Open is a no-op.
func (m *MemoryStore) Open(path string) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

// Create creates an object in the memory store.
func (m *MemoryStore) Create(ctx context.Context, resourceType types.ResourceType, namespace, name string, value interface{}) error {
	return m.Transaction(ctx, func(tx Transaction) error {
		return tx.Create(resourceType, namespace, name, value)
	})
}

// Get retrieves an object from the memory store.
func (m *MemoryStore) Get(ctx context.Context, resourceType types.ResourceType, namespace, name string, value interface{}) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return (&memoryTx{data: m.data}).Get(resourceType, namespace, name, value)
}

// Update replaces an object in the memory store.
func (m *MemoryStore) Update(ctx context.Context, resourceType types.ResourceType, namespace, name string, value interface{}) error {
	return m.Transaction(ctx, func(tx Transaction) error {
		return tx.Update(resourceType, namespace, name, value)
	})
}

// Delete removes an object from the memory store.
func (m *MemoryStore) Delete(ctx context.Context, resourceType types.ResourceType, namespace, name string) error {
	return m.Transaction(ctx, func(tx Transaction) error {
		return tx.Delete(resourceType, namespace, name)
	})
}

// List lists objects in key order.
func (m *MemoryStore) List(ctx context.Context, resourceType types.ResourceType, namespace string, value interface{}) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	prefix := string(MakePrefix(resourceType, namespace))
	keys := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	items := make([][]byte, 0, len(keys))
	for _, k := range keys {
		items = append(items, m.data[k])
	}
	return unmarshalList(items, value)
}

// Transaction runs fn against a staged copy and applies it only if fn
// returns nil. Writers are serialized.
func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx Transaction) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	tx := &memoryTx{data: make(map[string][]byte, len(m.data))}
	for k, v := range m.data {
		tx.data[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}

	m.data = tx.data
	for _, rec := range tx.pending {
		m.versions[rec.key] = append(m.versions[rec.key], rec.record)
	}
	return nil
}

// GetHistory returns the recorded versions, newest first.
func (m *MemoryStore) GetHistory(ctx context.Context, resourceType types.ResourceType, namespace, name string) ([]HistoricalVersion, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	recs := m.versions[string(MakeKey(resourceType, namespace, name))]
	out := make([]HistoricalVersion, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		hv, err := recs[i].historical()
		if err != nil {
			return nil, err
		}
		out = append(out, hv)
	}
	return out, nil
}

type pendingVersion struct {
	key    string
	record versionRecord
}

// memoryTx operates on a private copy of the store map.
type memoryTx struct {
	data    map[string][]byte
	pending []pendingVersion
}

func (t *memoryTx) Create(resourceType types.ResourceType, namespace, name string, value interface{}) error {
	key := string(MakeKey(resourceType, namespace, name))
	if _, ok := t.data[key]; ok {
		return alreadyExists(resourceType, namespace, name)
	}
	return t.put(key, value)
}

func (t *memoryTx) Get(resourceType types.ResourceType, namespace, name string, value interface{}) error {
	data, ok := t.data[string(MakeKey(resourceType, namespace, name))]
	if !ok {
		return notFound(resourceType, namespace, name)
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to unmarshal into target type: %w", err)
	}
	return nil
}

func (t *memoryTx) Update(resourceType types.ResourceType, namespace, name string, value interface{}) error {
	key := string(MakeKey(resourceType, namespace, name))
	if _, ok := t.data[key]; !ok {
		return notFound(resourceType, namespace, name)
	}
	return t.put(key, value)
}

func (t *memoryTx) Delete(resourceType types.ResourceType, namespace, name string) error {
	key := string(MakeKey(resourceType, namespace, name))
	if _, ok := t.data[key]; !ok {
		return notFound(resourceType, namespace, name)
	}
	delete(t.data, key)
	return nil
}

func (t *memoryTx) put(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize resource: %w", err)
	}
	t.data[key] = data

	now := time.Now()
	t.pending = append(t.pending, pendingVersion{
		key:    key,
		record: versionRecord{ID: newVersionID(now), Timestamp: now, Resource: data},
	})
	return nil
}
