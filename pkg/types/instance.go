package types

import "strings"

// Instance is a single asset, application or certificate record. Its custom
// field values are keyed by definition id of its type.
type Instance struct {
	ID                string       `json:"id"`
	Kind              EntityKind   `json:"kind"`
	TypeID            string       `json:"typeId"`
	Name              string       `json:"name"`
	Scalars           ScalarFields `json:"scalars"`
	CustomFieldValues []FieldValue `json:"customFieldValues"`
	Metadata          *Metadata    `json:"metadata,omitempty"`
}

// Validate checks the instance shape. Custom field values are validated
// against live definitions by the catalog service.
func (i *Instance) Validate() error {
	if i == nil {
		return NewValidationError("instance is nil")
	}
	if strings.TrimSpace(i.Name) == "" {
		return NewValidationError("name is required")
	}
	if !i.Kind.IsValid() {
		return NewValidationError("unknown entity kind: " + string(i.Kind))
	}
	if i.TypeID == "" {
		return NewValidationError("typeId is required")
	}
	return i.Scalars.Validate()
}
