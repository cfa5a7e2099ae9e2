package prefill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/types"
)

var (
	// ErrTemplateTypeMismatch is returned when a template belongs to a type
	// other than the one selected on the form.
	ErrTemplateTypeMismatch = errors.New("template belongs to a different type")

	// ErrNoTypeSelected is returned when a template is chosen before a type.
	ErrNoTypeSelected = errors.New("no type selected")

	// ErrUnknownField is returned for input addressed to a definition the
	// selected type does not have.
	ErrUnknownField = errors.New("unknown custom field")
)

// Session is one new-instance form: the selected type, its definitions, the
// selected template and the form state. A session is owned by a single
// caller and discarded when the form closes.
type Session struct {
	kind     types.EntityKind
	typeID   string
	defs     []types.FieldDefinition
	template *types.Template
	form     *Form
	logger   log.Logger
}

// NewSession opens an empty form for kind.
func NewSession(kind types.EntityKind, logger log.Logger) *Session {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Session{
		kind:   kind,
		form:   NewForm(),
		logger: logger.WithComponent("prefill"),
	}
}

// Kind returns the entity kind of the form.
func (s *Session) Kind() types.EntityKind { return s.kind }

// TypeID returns the selected type, or "".
func (s *Session) TypeID() string { return s.typeID }

// Template returns the selected template, or nil.
func (s *Session) Template() *types.Template { return s.template }

// Definitions returns the selected type's definitions in render order.
func (s *Session) Definitions() []types.FieldDefinition {
	return types.SortDefinitions(s.defs)
}

// Form returns a copy of the current form state.
func (s *Session) Form() *Form { return s.form.Clone() }

// SelectType picks the owning type. The template selector always goes back
// to none. Switching to a different type also drops custom field values,
// since they are keyed by the previous type's definitions.
func (s *Session) SelectType(typeID string, defs []types.FieldDefinition) {
	if typeID != s.typeID {
		s.form.Values = fields.NewBag()
	}
	s.typeID = typeID
	s.defs = types.SortDefinitions(defs)
	s.template = nil
	s.logger.Debug("type selected", log.Str("type_id", typeID), log.Int("fields", len(defs)))
}

// SelectTemplate merges tpl into the form. Previously merged template values
// are not cleared, so successive selections accumulate.
func (s *Session) SelectTemplate(tpl *types.Template) (Result, error) {
	if tpl == nil {
		s.ClearTemplate()
		return Result{Scalars: []string{}, Fields: []string{}}, nil
	}
	if s.typeID == "" {
		return Result{}, ErrNoTypeSelected
	}
	if tpl.OwnerTypeID != s.typeID {
		return Result{}, fmt.Errorf("%w: template %s is for type %s, form has %s",
			ErrTemplateTypeMismatch, tpl.ID, tpl.OwnerTypeID, s.typeID)
	}

	res := Apply(s.form, tpl)
	s.template = tpl
	s.logger.Debug("template applied",
		log.Str("template_id", tpl.ID),
		log.Int("scalars_filled", len(res.Scalars)),
		log.Int("fields_filled", len(res.Fields)))
	return res, nil
}

// ClearTemplate resets the selector to none. Values already merged stay.
func (s *Session) ClearTemplate() {
	s.template = nil
}

// SetScalar records user input for a scalar slot.
func (s *Session) SetScalar(name, value string) error {
	return s.form.Scalars.Set(name, value)
}

// SetValue records a raw stored value for a definition id.
func (s *Session) SetValue(id string, raw *string) error {
	if _, ok := s.definition(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	s.form.Values.Set(id, raw)
	return nil
}

// SetInput parses user text for the field named or identified by ref.
func (s *Session) SetInput(ref, input string) error {
	def, ok := s.definition(ref)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, ref)
	}
	v, err := fields.Parse(def.FieldType, input)
	if err != nil {
		return types.WrapValidationError(err, "field %q", def.Name)
	}
	s.form.Values.SetValue(def.ID, v)
	return nil
}

// Load replaces the form with stored values, as when editing an existing
// instance.
func (s *Session) Load(scalars types.ScalarFields, values []types.FieldValue) {
	s.form = &Form{Scalars: scalars, Values: fields.LoadBag(values)}
}

// Render returns one control per definition in sortOrder.
func (s *Session) Render() []fields.RenderedField {
	return s.form.Values.Render(s.defs)
}

// Validate checks required and format rules for the selected type, plus the
// scalar slots.
func (s *Session) Validate() fields.Issues {
	issues := fields.Validate(s.defs, s.form.Values)
	if err := s.form.Scalars.Validate(); err != nil {
		issues = append(issues, fields.Issue{
			Field:   "scalars",
			Kind:    fields.IssueFormat,
			Message: err.Error(),
		})
	}
	return issues
}

// Submission returns the scalars and normalized custom field values to send
// on create or update.
func (s *Session) Submission() (types.ScalarFields, []types.FieldValue) {
	return s.form.Scalars, s.form.Values.ToSubmission()
}

func (s *Session) definition(ref string) (types.FieldDefinition, bool) {
	for _, def := range s.defs {
		if def.ID == ref {
			return def, true
		}
	}
	for _, def := range s.defs {
		if def.Name != "" && strings.EqualFold(def.Name, ref) {
			return def, true
		}
	}
	return types.FieldDefinition{}, false
}
