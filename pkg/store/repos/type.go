package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
)

// TypeRepo stores entity types. Types are namespaced by kind and keyed by id.
type TypeRepo struct {
	base *BaseRepo[types.EntityType]
}

func NewTypeRepo(core store.Store) *TypeRepo {
	return &TypeRepo{base: NewBaseRepo[types.EntityType](core, types.ResourceTypeEntityType)}
}

// Create assigns an id when missing, validates and stores t.
func (r *TypeRepo) Create(ctx context.Context, t *types.EntityType) error {
	if t == nil {
		return fmt.Errorf("invalid entity type")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("entity type validation failed: %w", err)
	}
	stampCreate(&t.Metadata)
	return r.base.Create(ctx, string(t.Kind), t.ID, t)
}

func (r *TypeRepo) Get(ctx context.Context, kind types.EntityKind, id string) (*types.EntityType, error) {
	return r.base.Get(ctx, string(kind), id)
}

// GetByName finds a type of the given kind by name, ignoring case.
func (r *TypeRepo) GetByName(ctx context.Context, kind types.EntityKind, name string) (*types.EntityType, error) {
	all, err := r.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("entity type %s/%s: %w", kind, name, store.ErrNotFound)
}

// Update replaces t, keeping the stored creation time.
func (r *TypeRepo) Update(ctx context.Context, t *types.EntityType) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("entity type validation failed: %w", err)
	}
	cur, err := r.Get(ctx, t.Kind, t.ID)
	if err != nil {
		return err
	}
	stampUpdate(&t.Metadata, cur.Metadata)
	return r.base.Update(ctx, string(t.Kind), t.ID, t)
}

func (r *TypeRepo) Delete(ctx context.Context, kind types.EntityKind, id string) error {
	return r.base.Delete(ctx, string(kind), id)
}

// List returns the types of one kind, or every kind when kind is empty.
func (r *TypeRepo) List(ctx context.Context, kind types.EntityKind) ([]*types.EntityType, error) {
	ns := string(kind)
	if ns == "" {
		ns = store.AllNamespaces
	}
	return r.base.List(ctx, ns)
}

func (r *TypeRepo) GetHistory(ctx context.Context, kind types.EntityKind, id string) ([]store.HistoricalVersion, error) {
	return r.base.GetHistory(ctx, string(kind), id)
}
