package types

import (
	"strings"
	"time"
)

// Metadata is stamped on every stored resource by its repository.
type Metadata struct {
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"updatedAt,omitempty"`
	Generation int64     `json:"generation" yaml:"generation,omitempty"`
}

// EntityType is an asset type, application type or certificate type. It owns
// the ordered custom field definitions that every instance of the type carries.
type EntityType struct {
	ID           string            `json:"id" yaml:"id,omitempty"`
	Kind         EntityKind        `json:"kind" yaml:"kind"`
	Name         string            `json:"name" yaml:"name"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	CustomFields []FieldDefinition `json:"customFields" yaml:"customFields,omitempty"`
	Metadata     *Metadata         `json:"metadata,omitempty" yaml:"-"`
}

// Validate checks the type and its full definition list.
func (t *EntityType) Validate() error {
	if t == nil {
		return NewValidationError("entity type is nil")
	}
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError("type name is required")
	}
	if !t.Kind.IsValid() {
		return NewValidationError("unknown entity kind: " + string(t.Kind))
	}
	if err := ValidateDefinitions(t.CustomFields); err != nil {
		return WrapValidationError(err, "type %q", t.Name)
	}
	return nil
}

// OrderedFields returns the type's definitions in render order.
func (t *EntityType) OrderedFields() []FieldDefinition {
	return SortDefinitions(t.CustomFields)
}

// FieldByID looks up a definition by id.
func (t *EntityType) FieldByID(id string) (FieldDefinition, bool) {
	for _, def := range t.CustomFields {
		if def.ID == id {
			return def, true
		}
	}
	return FieldDefinition{}, false
}

// FieldByName looks up a definition by name, ignoring case.
func (t *EntityType) FieldByName(name string) (FieldDefinition, bool) {
	for _, def := range t.CustomFields {
		if strings.EqualFold(def.Name, name) {
			return def, true
		}
	}
	return FieldDefinition{}, false
}
