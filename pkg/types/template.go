package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Scalar field names as they appear on the wire and in CLI flags.
const (
	ScalarPurchaseCost       = "purchaseCost"
	ScalarDepreciationMonths = "depreciationMonths"
	ScalarLocationID         = "locationId"
	ScalarNotes              = "notes"
)

// ScalarNames lists the scalar slots a template can pre-fill.
func ScalarNames() []string {
	return []string{ScalarPurchaseCost, ScalarDepreciationMonths, ScalarLocationID, ScalarNotes}
}

// ScalarFields are the fixed, non-custom slots shared by templates and
// instance forms. An empty string means the slot is unset.
type ScalarFields struct {
	PurchaseCost       string `json:"purchaseCost,omitempty" yaml:"purchaseCost,omitempty"`
	DepreciationMonths string `json:"depreciationMonths,omitempty" yaml:"depreciationMonths,omitempty"`
	LocationID         string `json:"locationId,omitempty" yaml:"locationId,omitempty"`
	Notes              string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Get returns the named scalar.
func (s *ScalarFields) Get(name string) (string, error) {
	p, err := s.slot(name)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// Set assigns the named scalar.
func (s *ScalarFields) Set(name, value string) error {
	p, err := s.slot(name)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

func (s *ScalarFields) slot(name string) (*string, error) {
	switch name {
	case ScalarPurchaseCost:
		return &s.PurchaseCost, nil
	case ScalarDepreciationMonths:
		return &s.DepreciationMonths, nil
	case ScalarLocationID:
		return &s.LocationID, nil
	case ScalarNotes:
		return &s.Notes, nil
	}
	return nil, NewValidationError(fmt.Sprintf("unknown scalar field %q", name))
}

// Validate checks that numeric scalars parse when set.
func (s ScalarFields) Validate() error {
	if v := strings.TrimSpace(s.PurchaseCost); v != "" {
		cost, err := strconv.ParseFloat(v, 64)
		if err != nil || cost < 0 {
			return NewValidationError(fmt.Sprintf("purchaseCost %q must be a non-negative number", s.PurchaseCost))
		}
	}
	if v := strings.TrimSpace(s.DepreciationMonths); v != "" {
		months, err := strconv.Atoi(v)
		if err != nil || months < 0 {
			return NewValidationError(fmt.Sprintf("depreciationMonths %q must be a non-negative integer", s.DepreciationMonths))
		}
	}
	return nil
}

// Template is a named preset of scalar and custom field defaults scoped to
// one owning type. It pre-fills new instance forms.
type Template struct {
	ID             string       `json:"id" yaml:"id,omitempty"`
	Name           string       `json:"name" yaml:"name"`
	Kind           EntityKind   `json:"kind" yaml:"kind,omitempty"`
	OwnerTypeID    string       `json:"ownerTypeId" yaml:"ownerTypeId,omitempty"`
	ScalarDefaults ScalarFields `json:"scalarDefaults" yaml:"scalarDefaults,omitempty"`
	FieldValues    []FieldValue `json:"fieldValues" yaml:"fieldValues,omitempty"`
	Metadata       *Metadata    `json:"metadata,omitempty" yaml:"-"`
}

// Validate checks the template's own shape. Field values are not checked
// against the owning type's definitions here.
func (t *Template) Validate() error {
	if t == nil {
		return NewValidationError("template is nil")
	}
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError("template name is required")
	}
	if t.OwnerTypeID == "" {
		return NewValidationError(fmt.Sprintf("template %q: ownerTypeId is required", t.Name))
	}
	if err := t.ScalarDefaults.Validate(); err != nil {
		return WrapValidationError(err, "template %q", t.Name)
	}
	for i, fv := range t.FieldValues {
		if fv.FieldDefinitionID == "" {
			return NewValidationError(fmt.Sprintf("template %q: field value %d has no fieldDefinitionId", t.Name, i))
		}
	}
	return nil
}
