// Package catalog is the persistence-facing side of the custom field engine.
// It owns entity types and their field definitions, templates and instances,
// and runs every instance write through a prefill session so stored values
// are always the normalized submission.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/prefill"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/store/repos"
	"github.com/rzbill/stockroom/pkg/types"
)

// ErrTypeInUse is returned when deleting a type that still has instances.
var ErrTypeInUse = errors.New("type has instances")

// IssuesError reports a submission rejected by field validation. It unwraps
// to a types.ValidationError.
type IssuesError struct {
	Issues fields.Issues
}

func (e *IssuesError) Error() string {
	return e.Issues.Err().Error()
}

func (e *IssuesError) Unwrap() error {
	return e.Issues.Err()
}

// Service implements the catalog operations over a store.
type Service struct {
	core      store.Store
	types     *repos.TypeRepo
	templates *repos.TemplateRepo
	instances *repos.InstanceRepo
	logger    log.Logger
}

// NewService creates a catalog service backed by core.
func NewService(core store.Store, logger log.Logger) *Service {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Service{
		core:      core,
		types:     repos.NewTypeRepo(core),
		templates: repos.NewTemplateRepo(core),
		instances: repos.NewInstanceRepo(core),
		logger:    logger.WithComponent("catalog"),
	}
}

// CreateType stores a new entity type. Definitions without ids are given
// one, and sortOrder is renumbered densely.
func (s *Service) CreateType(ctx context.Context, t *types.EntityType) (*types.EntityType, error) {
	if t == nil {
		return nil, types.NewValidationError("entity type is required")
	}
	if !t.Kind.IsValid() {
		return nil, types.NewValidationError("unknown entity kind: " + string(t.Kind))
	}
	if strings.TrimSpace(t.Name) == "" {
		return nil, types.NewValidationError("type name is required")
	}
	if _, err := s.types.GetByName(ctx, t.Kind, t.Name); err == nil {
		return nil, fmt.Errorf("%s type %q: %w", t.Kind, t.Name, store.ErrAlreadyExists)
	} else if !store.IsNotFoundError(err) {
		return nil, err
	}

	t.CustomFields = normalizeDefinitions(t.CustomFields)
	if err := s.types.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("Created type",
		log.Str("kind", string(t.Kind)),
		log.Str("type_id", t.ID),
		log.Str("name", t.Name),
		log.Int("fields", len(t.CustomFields)))
	return t, nil
}

// GetType returns one type.
func (s *Service) GetType(ctx context.Context, kind types.EntityKind, id string) (*types.EntityType, error) {
	return s.types.Get(ctx, kind, id)
}

// GetTypeByName returns the type of kind with the given name.
func (s *Service) GetTypeByName(ctx context.Context, kind types.EntityKind, name string) (*types.EntityType, error) {
	return s.types.GetByName(ctx, kind, name)
}

// ResolveType finds a type by id, falling back to a case-insensitive name.
func (s *Service) ResolveType(ctx context.Context, kind types.EntityKind, ref string) (*types.EntityType, error) {
	t, err := s.types.Get(ctx, kind, ref)
	if err == nil || !store.IsNotFoundError(err) {
		return t, err
	}
	return s.types.GetByName(ctx, kind, ref)
}

// ListTypes returns the types of kind; an empty kind lists every kind.
func (s *Service) ListTypes(ctx context.Context, kind types.EntityKind) ([]*types.EntityType, error) {
	return s.types.List(ctx, kind)
}

// UpdateType changes a type's name and description. Field definitions are
// changed through SaveFieldDefinitions.
func (s *Service) UpdateType(ctx context.Context, kind types.EntityKind, id, name, description string) (*types.EntityType, error) {
	t, err := s.types.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if name != "" && !strings.EqualFold(name, t.Name) {
		if other, err := s.types.GetByName(ctx, kind, name); err == nil && other.ID != id {
			return nil, fmt.Errorf("%s type %q: %w", kind, name, store.ErrAlreadyExists)
		}
	}
	if name != "" {
		t.Name = name
	}
	t.Description = description
	if err := s.types.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteType removes a type and every template it owns in one transaction.
// Types that still have instances are not deleted.
func (s *Service) DeleteType(ctx context.Context, kind types.EntityKind, id string) error {
	if _, err := s.types.Get(ctx, kind, id); err != nil {
		return err
	}
	used, err := s.instances.ListByType(ctx, kind, id)
	if err != nil {
		return err
	}
	if len(used) > 0 {
		return fmt.Errorf("%s type %s: %w (%d)", kind, id, ErrTypeInUse, len(used))
	}
	owned, err := s.templates.List(ctx, id)
	if err != nil {
		return err
	}

	err = s.core.Transaction(ctx, func(tx store.Transaction) error {
		for _, tpl := range owned {
			if err := s.templates.DeleteTx(tx, tpl); err != nil {
				return err
			}
		}
		return tx.Delete(types.ResourceTypeEntityType, string(kind), id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete type: %w", err)
	}
	s.logger.Info("Deleted type",
		log.Str("kind", string(kind)),
		log.Str("type_id", id),
		log.Int("templates", len(owned)))
	return nil
}

// TypeHistory returns the stored versions of a type, newest first.
func (s *Service) TypeHistory(ctx context.Context, kind types.EntityKind, id string) ([]store.HistoricalVersion, error) {
	return s.types.GetHistory(ctx, kind, id)
}

// FieldDefinitions returns a type's definitions in sortOrder.
func (s *Service) FieldDefinitions(ctx context.Context, kind types.EntityKind, typeID string) ([]types.FieldDefinition, error) {
	t, err := s.types.Get(ctx, kind, typeID)
	if err != nil {
		return nil, err
	}
	return t.OrderedFields(), nil
}

// SaveFieldDefinitions replaces a type's definition set with defs, ordered
// by their sortOrder. Definitions without ids are new.
func (s *Service) SaveFieldDefinitions(ctx context.Context, kind types.EntityKind, typeID string, defs []types.FieldDefinition) (*types.EntityType, error) {
	t, err := s.types.Get(ctx, kind, typeID)
	if err != nil {
		return nil, err
	}
	t.CustomFields = normalizeDefinitions(defs)
	if err := s.types.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("Saved field definitions",
		log.Str("kind", string(kind)),
		log.Str("type_id", typeID),
		log.Int("fields", len(t.CustomFields)))
	return t, nil
}

// normalizeDefinitions orders defs by sortOrder, assigns ids to new
// definitions, drops options from non-select types and renumbers densely.
func normalizeDefinitions(defs []types.FieldDefinition) []types.FieldDefinition {
	out := make([]types.FieldDefinition, len(defs))
	for i, def := range types.SortDefinitions(defs) {
		if def.ID == "" {
			def.ID = uuid.New().String()
		}
		def.Name = strings.TrimSpace(def.Name)
		if !def.FieldType.HasOptions() {
			def.Options = nil
		}
		def.SortOrder = i
		out[i] = def
	}
	return out
}

// NewSession opens a prefill session for typeID with its live definitions.
func (s *Service) NewSession(ctx context.Context, kind types.EntityKind, typeID string) (*prefill.Session, error) {
	defs, err := s.FieldDefinitions(ctx, kind, typeID)
	if err != nil {
		return nil, err
	}
	sess := prefill.NewSession(kind, s.logger)
	sess.SelectType(typeID, defs)
	return sess, nil
}
