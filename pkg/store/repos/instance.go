package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
)

// InstanceRepo stores assets, applications and certificates, namespaced by kind.
type InstanceRepo struct {
	base *BaseRepo[types.Instance]
}

func NewInstanceRepo(core store.Store) *InstanceRepo {
	return &InstanceRepo{base: NewBaseRepo[types.Instance](core, types.ResourceTypeInstance)}
}

// Create using fields on instance (no ref required)
func (r *InstanceRepo) Create(ctx context.Context, i *types.Instance) error {
	if i == nil {
		return fmt.Errorf("invalid instance")
	}
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	if err := i.Validate(); err != nil {
		return fmt.Errorf("instance validation failed: %w", err)
	}
	stampCreate(&i.Metadata)
	return r.base.Create(ctx, string(i.Kind), i.ID, i)
}

func (r *InstanceRepo) Get(ctx context.Context, kind types.EntityKind, id string) (*types.Instance, error) {
	return r.base.Get(ctx, string(kind), id)
}

func (r *InstanceRepo) Update(ctx context.Context, i *types.Instance) error {
	if err := i.Validate(); err != nil {
		return fmt.Errorf("instance validation failed: %w", err)
	}
	cur, err := r.Get(ctx, i.Kind, i.ID)
	if err != nil {
		return err
	}
	stampUpdate(&i.Metadata, cur.Metadata)
	return r.base.Update(ctx, string(i.Kind), i.ID, i)
}

func (r *InstanceRepo) Delete(ctx context.Context, kind types.EntityKind, id string) error {
	return r.base.Delete(ctx, string(kind), id)
}

func (r *InstanceRepo) List(ctx context.Context, kind types.EntityKind) ([]*types.Instance, error) {
	return r.base.List(ctx, string(kind))
}

// ListByType returns the instances of one type.
func (r *InstanceRepo) ListByType(ctx context.Context, kind types.EntityKind, typeID string) ([]*types.Instance, error) {
	instances, err := r.List(ctx, kind)
	if err != nil {
		return nil, err
	}

	filtered := make([]*types.Instance, 0, len(instances))
	for _, instance := range instances {
		if instance.TypeID == typeID {
			filtered = append(filtered, instance)
		}
	}
	return filtered, nil
}
