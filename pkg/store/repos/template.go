package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
)

// TemplateRepo stores templates namespaced by their owning type id.
type TemplateRepo struct {
	base *BaseRepo[types.Template]
}

func NewTemplateRepo(core store.Store) *TemplateRepo {
	return &TemplateRepo{base: NewBaseRepo[types.Template](core, types.ResourceTypeTemplate)}
}

func (r *TemplateRepo) Create(ctx context.Context, t *types.Template) error {
	if t == nil {
		return fmt.Errorf("invalid template")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}
	stampCreate(&t.Metadata)
	return r.base.Create(ctx, t.OwnerTypeID, t.ID, t)
}

func (r *TemplateRepo) Get(ctx context.Context, typeID, id string) (*types.Template, error) {
	return r.base.Get(ctx, typeID, id)
}

// GetByName finds a template of the given type by name, ignoring case.
func (r *TemplateRepo) GetByName(ctx context.Context, typeID, name string) (*types.Template, error) {
	all, err := r.List(ctx, typeID)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("template %s/%s: %w", typeID, name, store.ErrNotFound)
}

func (r *TemplateRepo) Update(ctx context.Context, t *types.Template) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}
	cur, err := r.Get(ctx, t.OwnerTypeID, t.ID)
	if err != nil {
		return err
	}
	stampUpdate(&t.Metadata, cur.Metadata)
	return r.base.Update(ctx, t.OwnerTypeID, t.ID, t)
}

func (r *TemplateRepo) Delete(ctx context.Context, typeID, id string) error {
	return r.base.Delete(ctx, typeID, id)
}

// List returns the templates owned by typeID.
func (r *TemplateRepo) List(ctx context.Context, typeID string) ([]*types.Template, error) {
	if typeID == "" {
		return nil, types.NewValidationError("type id is required to list templates")
	}
	return r.base.List(ctx, typeID)
}

// DeleteTx removes t inside tx. Callers list the templates before opening
// the transaction.
func (r *TemplateRepo) DeleteTx(tx store.Transaction, t *types.Template) error {
	return tx.Delete(r.base.ResourceType(), t.OwnerTypeID, t.ID)
}
