package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
)

// CreateTemplate stores a template for one of kind's types. Field values must
// name definitions of the owning type; empty values are dropped.
func (s *Service) CreateTemplate(ctx context.Context, kind types.EntityKind, tpl *types.Template) (*types.Template, error) {
	if tpl == nil {
		return nil, types.NewValidationError("template is required")
	}
	owner, err := s.types.Get(ctx, kind, tpl.OwnerTypeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.templates.GetByName(ctx, owner.ID, tpl.Name); err == nil {
		return nil, fmt.Errorf("template %q for type %q: %w", tpl.Name, owner.Name, store.ErrAlreadyExists)
	} else if !store.IsNotFoundError(err) {
		return nil, err
	}

	if err := prepareTemplate(owner, tpl, nil); err != nil {
		return nil, err
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, err
	}
	s.logger.Info("Created template",
		log.Str("kind", string(kind)),
		log.Str("type_id", owner.ID),
		log.Str("template_id", tpl.ID),
		log.Str("name", tpl.Name))
	return tpl, nil
}

// UpdateTemplate replaces a stored template. Values the stored template
// already held for fields since removed from the type are kept as they are.
func (s *Service) UpdateTemplate(ctx context.Context, kind types.EntityKind, tpl *types.Template) (*types.Template, error) {
	if tpl == nil {
		return nil, types.NewValidationError("template is required")
	}
	owner, err := s.types.Get(ctx, kind, tpl.OwnerTypeID)
	if err != nil {
		return nil, err
	}
	current, err := s.templates.Get(ctx, owner.ID, tpl.ID)
	if err != nil {
		return nil, err
	}
	if other, err := s.templates.GetByName(ctx, owner.ID, tpl.Name); err == nil && other.ID != tpl.ID {
		return nil, fmt.Errorf("template %q for type %q: %w", tpl.Name, owner.Name, store.ErrAlreadyExists)
	}
	if err := prepareTemplate(owner, tpl, current.FieldValues); err != nil {
		return nil, err
	}
	if err := s.templates.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// GetTemplate returns one template of typeID.
func (s *Service) GetTemplate(ctx context.Context, typeID, id string) (*types.Template, error) {
	return s.templates.Get(ctx, typeID, id)
}

// ResolveTemplate finds a template of typeID by id, falling back to name.
func (s *Service) ResolveTemplate(ctx context.Context, typeID, ref string) (*types.Template, error) {
	tpl, err := s.templates.Get(ctx, typeID, ref)
	if err == nil || !store.IsNotFoundError(err) {
		return tpl, err
	}
	return s.templates.GetByName(ctx, typeID, ref)
}

// ListTemplates returns the templates owned by typeID.
func (s *Service) ListTemplates(ctx context.Context, typeID string) ([]*types.Template, error) {
	return s.templates.List(ctx, typeID)
}

// DeleteTemplate removes one template.
func (s *Service) DeleteTemplate(ctx context.Context, typeID, id string) error {
	if err := s.templates.Delete(ctx, typeID, id); err != nil {
		return err
	}
	s.logger.Info("Deleted template", log.Str("type_id", typeID), log.Str("template_id", id))
	return nil
}

// prepareTemplate ties tpl to owner and normalizes its field values. A value
// for a field the type does not define is rejected unless stored already
// holds a value for that field; such values are inert and carried through.
func prepareTemplate(owner *types.EntityType, tpl *types.Template, stored []types.FieldValue) error {
	tpl.Kind = owner.Kind
	tpl.Name = strings.TrimSpace(tpl.Name)

	known := fields.LoadBag(stored)
	bag := fields.LoadBag(tpl.FieldValues)
	for _, id := range bag.IDs() {
		if _, ok := owner.FieldByID(id); ok {
			continue
		}
		if _, ok := known.Get(id); !ok {
			return types.NewValidationError(fmt.Sprintf("template %q: type %q has no field %s", tpl.Name, owner.Name, id))
		}
	}

	var format fields.Issues
	for _, issue := range fields.Validate(owner.OrderedFields(), bag) {
		if issue.Kind == fields.IssueFormat {
			format = append(format, issue)
		}
	}
	if len(format) > 0 {
		return types.WrapValidationError(format.Err(), "template %q", tpl.Name)
	}

	tpl.FieldValues = bag.ToSubmission()
	return nil
}
