package catalog

import (
	"context"

	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/prefill"
	"github.com/rzbill/stockroom/pkg/types"
)

// InstanceSubmission is the body of an instance create or update.
type InstanceSubmission struct {
	Name              string             `json:"name"`
	TypeID            string             `json:"typeId"`
	TemplateID        string             `json:"templateId,omitempty"`
	Scalars           types.ScalarFields `json:"scalars"`
	CustomFieldValues []types.FieldValue `json:"customFieldValues"`
}

// PrefillRequest carries the current state of an instance form.
type PrefillRequest struct {
	TemplateID        string             `json:"templateId,omitempty"`
	Scalars           types.ScalarFields `json:"scalars"`
	CustomFieldValues []types.FieldValue `json:"customFieldValues"`
}

// PrefillResult is a form after a template merge, ready to render.
type PrefillResult struct {
	TypeID            string                 `json:"typeId"`
	TemplateID        string                 `json:"templateId,omitempty"`
	Scalars           types.ScalarFields     `json:"scalars"`
	CustomFieldValues []types.FieldValue     `json:"customFieldValues"`
	Fields            []fields.RenderedField `json:"fields"`
	Merged            prefill.Result         `json:"merged"`
	Issues            fields.Issues          `json:"issues"`
}

// Prefill merges a template into a form for typeID and returns the rendered
// result. Nothing is stored.
func (s *Service) Prefill(ctx context.Context, kind types.EntityKind, typeID string, req PrefillRequest) (*PrefillResult, error) {
	sess, err := s.NewSession(ctx, kind, typeID)
	if err != nil {
		return nil, err
	}
	sess.Load(req.Scalars, req.CustomFieldValues)

	merged, err := s.selectTemplate(ctx, sess, req.TemplateID)
	if err != nil {
		return nil, err
	}

	issues := sess.Validate()
	if issues == nil {
		issues = fields.Issues{}
	}
	scalars, values := sess.Submission()
	return &PrefillResult{
		TypeID:            typeID,
		TemplateID:        req.TemplateID,
		Scalars:           scalars,
		CustomFieldValues: values,
		Fields:            sess.Render(),
		Merged:            merged,
		Issues:            issues,
	}, nil
}

// CreateInstance validates sub against the type's live definitions, merges
// the optional template and stores the normalized submission.
func (s *Service) CreateInstance(ctx context.Context, kind types.EntityKind, sub InstanceSubmission) (*types.Instance, error) {
	scalars, values, err := s.submit(ctx, kind, sub.TypeID, sub)
	if err != nil {
		return nil, err
	}

	inst := &types.Instance{
		Kind:              kind,
		TypeID:            sub.TypeID,
		Name:              sub.Name,
		Scalars:           scalars,
		CustomFieldValues: values,
	}
	if err := s.instances.Create(ctx, inst); err != nil {
		return nil, err
	}
	s.logger.Info("Created instance",
		log.Str("kind", string(kind)),
		log.Str("instance_id", inst.ID),
		log.Str("type_id", inst.TypeID),
		log.Int("custom_values", len(values)))
	return inst, nil
}

// UpdateInstance replaces an instance's name, scalars and custom field
// values. An empty TypeID keeps the current type.
func (s *Service) UpdateInstance(ctx context.Context, kind types.EntityKind, id string, sub InstanceSubmission) (*types.Instance, error) {
	inst, err := s.instances.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	typeID := sub.TypeID
	if typeID == "" {
		typeID = inst.TypeID
	}

	scalars, values, err := s.submit(ctx, kind, typeID, sub)
	if err != nil {
		return nil, err
	}

	if sub.Name != "" {
		inst.Name = sub.Name
	}
	inst.TypeID = typeID
	inst.Scalars = scalars
	inst.CustomFieldValues = values
	if err := s.instances.Update(ctx, inst); err != nil {
		return nil, err
	}
	s.logger.Info("Updated instance",
		log.Str("kind", string(kind)),
		log.Str("instance_id", inst.ID),
		log.Int("custom_values", len(values)))
	return inst, nil
}

// GetInstance returns one instance.
func (s *Service) GetInstance(ctx context.Context, kind types.EntityKind, id string) (*types.Instance, error) {
	return s.instances.Get(ctx, kind, id)
}

// ListInstances returns the instances of kind, optionally limited to one type.
func (s *Service) ListInstances(ctx context.Context, kind types.EntityKind, typeID string) ([]*types.Instance, error) {
	if typeID != "" {
		return s.instances.ListByType(ctx, kind, typeID)
	}
	return s.instances.List(ctx, kind)
}

// DeleteInstance removes one instance.
func (s *Service) DeleteInstance(ctx context.Context, kind types.EntityKind, id string) error {
	return s.instances.Delete(ctx, kind, id)
}

// RenderInstance returns an instance's custom fields in its type's order.
func (s *Service) RenderInstance(ctx context.Context, inst *types.Instance) ([]fields.RenderedField, error) {
	defs, err := s.FieldDefinitions(ctx, inst.Kind, inst.TypeID)
	if err != nil {
		return nil, err
	}
	return fields.LoadBag(inst.CustomFieldValues).Render(defs), nil
}

// submit runs sub through a prefill session for typeID and returns the
// values to store, or an *IssuesError.
func (s *Service) submit(ctx context.Context, kind types.EntityKind, typeID string, sub InstanceSubmission) (types.ScalarFields, []types.FieldValue, error) {
	if typeID == "" {
		return types.ScalarFields{}, nil, types.NewValidationError("typeId is required")
	}
	sess, err := s.NewSession(ctx, kind, typeID)
	if err != nil {
		return types.ScalarFields{}, nil, err
	}
	sess.Load(sub.Scalars, sub.CustomFieldValues)

	if _, err := s.selectTemplate(ctx, sess, sub.TemplateID); err != nil {
		return types.ScalarFields{}, nil, err
	}

	if issues := sess.Validate(); len(issues) > 0 {
		s.logger.Debug("Submission rejected",
			log.Str("kind", string(kind)),
			log.Str("type_id", typeID),
			log.Int("issues", len(issues)))
		return types.ScalarFields{}, nil, &IssuesError{Issues: issues}
	}

	scalars, values := sess.Submission()
	return scalars, values, nil
}

func (s *Service) selectTemplate(ctx context.Context, sess *prefill.Session, ref string) (prefill.Result, error) {
	if ref == "" {
		return prefill.Result{Scalars: []string{}, Fields: []string{}}, nil
	}
	tpl, err := s.ResolveTemplate(ctx, sess.TypeID(), ref)
	if err != nil {
		return prefill.Result{}, err
	}
	return sess.SelectTemplate(tpl)
}
