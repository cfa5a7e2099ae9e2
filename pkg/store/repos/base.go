package repos

import (
	"context"
	"time"

	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
)

// BaseRepo provides common CRUD over the core store for a specific resource type.
// T is the typed payload struct (e.g., types.EntityType, types.Template).
type BaseRepo[T any] struct {
	core         store.Store
	resourceType types.ResourceType
}

func NewBaseRepo[T any](core store.Store, rt types.ResourceType) *BaseRepo[T] {
	return &BaseRepo[T]{core: core, resourceType: rt}
}

func (r *BaseRepo[T]) Create(ctx context.Context, namespace, name string, obj *T) error {
	return r.core.Create(ctx, r.resourceType, namespace, name, obj)
}

func (r *BaseRepo[T]) Get(ctx context.Context, namespace, name string) (*T, error) {
	var out T
	if err := r.core.Get(ctx, r.resourceType, namespace, name, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *BaseRepo[T]) Update(ctx context.Context, namespace, name string, obj *T) error {
	return r.core.Update(ctx, r.resourceType, namespace, name, obj)
}

func (r *BaseRepo[T]) Delete(ctx context.Context, namespace, name string) error {
	return r.core.Delete(ctx, r.resourceType, namespace, name)
}

// List returns typed list within a namespace. store.AllNamespaces lists all.
func (r *BaseRepo[T]) List(ctx context.Context, namespace string) ([]*T, error) {
	var items []T
	if err := r.core.List(ctx, r.resourceType, namespace, &items); err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(items))
	for i := range items {
		item := items[i]
		out = append(out, &item)
	}
	return out, nil
}

func (r *BaseRepo[T]) GetHistory(ctx context.Context, namespace, name string) ([]store.HistoricalVersion, error) {
	return r.core.GetHistory(ctx, r.resourceType, namespace, name)
}

func (r *BaseRepo[T]) ResourceType() types.ResourceType { return r.resourceType }

func (r *BaseRepo[T]) Core() store.Store { return r.core }

// stampCreate sets fresh metadata on a resource about to be created.
func stampCreate(meta **types.Metadata) {
	now := time.Now().UTC()
	*meta = &types.Metadata{CreatedAt: now, UpdatedAt: now, Generation: 1}
}

// stampUpdate carries creation time forward from cur and bumps the generation.
func stampUpdate(meta **types.Metadata, cur *types.Metadata) {
	now := time.Now().UTC()
	next := &types.Metadata{CreatedAt: now, UpdatedAt: now, Generation: 1}
	if cur != nil {
		next.CreatedAt = cur.CreatedAt
		next.Generation = cur.Generation + 1
	}
	*meta = next
}
