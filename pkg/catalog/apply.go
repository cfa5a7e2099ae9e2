package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
)

// ApplyResult lists what ApplyCatalog changed, as "kind/name" entries.
type ApplyResult struct {
	TypesCreated     []string `json:"typesCreated"`
	TypesUpdated     []string `json:"typesUpdated"`
	TemplatesCreated []string `json:"templatesCreated"`
	TemplatesUpdated []string `json:"templatesUpdated"`
}

// ApplyCatalog creates or replaces the types and templates declared in cf.
// Types and templates are matched by name; existing field definitions keep
// their ids when a field of the same name is declared again.
func (s *Service) ApplyCatalog(ctx context.Context, cf *types.CatalogFile) (*ApplyResult, error) {
	if errs := cf.Lint(); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, err := range errs {
			msgs = append(msgs, err.Error())
		}
		return nil, types.NewValidationError(strings.Join(msgs, "; "))
	}

	res := &ApplyResult{
		TypesCreated:     []string{},
		TypesUpdated:     []string{},
		TemplatesCreated: []string{},
		TemplatesUpdated: []string{},
	}
	for _, spec := range cf.Types {
		created, err := s.applyType(ctx, spec)
		if err != nil {
			return res, locate(cf, "type", spec.Kind, spec.Name, err)
		}
		label := string(spec.Kind) + "/" + spec.Name
		if created {
			res.TypesCreated = append(res.TypesCreated, label)
		} else {
			res.TypesUpdated = append(res.TypesUpdated, label)
		}
	}
	for _, spec := range cf.Templates {
		created, err := s.applyTemplate(ctx, spec)
		if err != nil {
			return res, locate(cf, "template", spec.Kind, spec.Name, err)
		}
		label := string(spec.Kind) + "/" + spec.Type + "/" + spec.Name
		if created {
			res.TemplatesCreated = append(res.TemplatesCreated, label)
		} else {
			res.TemplatesUpdated = append(res.TemplatesUpdated, label)
		}
	}

	s.logger.Info("Applied catalog",
		log.Int("types_created", len(res.TypesCreated)),
		log.Int("types_updated", len(res.TypesUpdated)),
		log.Int("templates_created", len(res.TemplatesCreated)),
		log.Int("templates_updated", len(res.TemplatesUpdated)))
	return res, nil
}

func (s *Service) applyType(ctx context.Context, spec types.TypeSpec) (bool, error) {
	desired, err := spec.ToEntityType()
	if err != nil {
		return false, err
	}

	existing, err := s.types.GetByName(ctx, spec.Kind, spec.Name)
	if store.IsNotFoundError(err) {
		_, err := s.CreateType(ctx, desired)
		return true, err
	} else if err != nil {
		return false, err
	}

	for i, def := range desired.CustomFields {
		if old, ok := existing.FieldByName(def.Name); ok {
			desired.CustomFields[i].ID = old.ID
		}
	}
	if existing.Description != desired.Description {
		if _, err := s.UpdateType(ctx, existing.Kind, existing.ID, existing.Name, desired.Description); err != nil {
			return false, err
		}
	}
	_, err = s.SaveFieldDefinitions(ctx, existing.Kind, existing.ID, desired.CustomFields)
	return false, err
}

func (s *Service) applyTemplate(ctx context.Context, spec types.TemplateSpec) (bool, error) {
	owner, err := s.types.GetByName(ctx, spec.Kind, spec.Type)
	if err != nil {
		return false, err
	}
	values, err := templateValues(owner, spec.Values)
	if err != nil {
		return false, err
	}

	tpl := &types.Template{
		Name:           spec.Name,
		Kind:           owner.Kind,
		OwnerTypeID:    owner.ID,
		ScalarDefaults: spec.Scalars,
		FieldValues:    values,
	}

	existing, err := s.templates.GetByName(ctx, owner.ID, spec.Name)
	if store.IsNotFoundError(err) {
		_, err := s.CreateTemplate(ctx, owner.Kind, tpl)
		return true, err
	} else if err != nil {
		return false, err
	}
	tpl.ID = existing.ID
	_, err = s.UpdateTemplate(ctx, owner.Kind, tpl)
	return false, err
}

// templateValues resolves field names to definition ids and encodes each
// value for its field type.
func templateValues(owner *types.EntityType, values map[string]types.TemplateValue) ([]types.FieldValue, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]types.FieldValue, 0, len(values))
	for _, name := range names {
		tv := values[name]
		def, ok := owner.FieldByName(name)
		if !ok {
			return nil, types.NewValidationError(fmt.Sprintf("type %q has no field %q", owner.Name, name))
		}

		var v fields.Value
		switch {
		case tv.IsList():
			if def.FieldType != types.FieldTypeMultiSelect {
				return nil, types.NewValidationError(fmt.Sprintf("field %q is %s and cannot take a list", def.Name, def.FieldType))
			}
			v = fields.SelectionValue(tv.List...)
		case tv.Scalar != nil:
			parsed, err := fields.Parse(def.FieldType, *tv.Scalar)
			if err != nil {
				return nil, types.WrapValidationError(err, "field %q", def.Name)
			}
			v = parsed
		default:
			continue
		}
		out = append(out, types.FieldValue{FieldDefinitionID: def.ID, Value: fields.Encode(v)})
	}
	return out, nil
}

func locate(cf *types.CatalogFile, what string, kind types.EntityKind, name string, err error) error {
	if line, ok := cf.GetLineInfo(what, kind, name); ok {
		return fmt.Errorf("%s %q (kind=%q) at line %d: %w", what, name, kind, line, err)
	}
	return fmt.Errorf("%s %q (kind=%q): %w", what, name, kind, err)
}
