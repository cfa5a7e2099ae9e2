package types

import (
	"fmt"
	"sort"
	"strings"
)

// FieldType is the kind of value a custom field holds. Every kind is stored
// as a plain string (or null); the per-kind encoding lives in pkg/fields.
type FieldType string

const (
	// FieldTypeText stores free text verbatim.
	FieldTypeText FieldType = "Text"
	// FieldTypeNumber stores an unformatted decimal string.
	FieldTypeNumber FieldType = "Number"
	// FieldTypeDate stores an ISO date string (YYYY-MM-DD).
	FieldTypeDate FieldType = "Date"
	// FieldTypeBoolean stores exactly "true" or "false".
	FieldTypeBoolean FieldType = "Boolean"
	// FieldTypeSingleSelect stores the chosen option label verbatim.
	FieldTypeSingleSelect FieldType = "SingleSelect"
	// FieldTypeMultiSelect stores a JSON array of labels, or "" when nothing is selected.
	FieldTypeMultiSelect FieldType = "MultiSelect"
	// FieldTypeURL stores a URL verbatim.
	FieldTypeURL FieldType = "Url"
)

// FieldTypes returns every field type in the order editors list them.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeNumber,
		FieldTypeDate,
		FieldTypeBoolean,
		FieldTypeSingleSelect,
		FieldTypeMultiSelect,
		FieldTypeURL,
	}
}

// IsValid reports whether t is a known field type.
func (t FieldType) IsValid() bool {
	for _, ft := range FieldTypes() {
		if ft == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether the field type draws its values from an option list.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSingleSelect || t == FieldTypeMultiSelect
}

// ParseFieldType resolves a field type name case-insensitively
// ("multiselect", "MultiSelect", "url" all work).
func ParseFieldType(s string) (FieldType, error) {
	for _, ft := range FieldTypes() {
		if strings.EqualFold(string(ft), s) {
			return ft, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("unknown field type %q", s))
}

// FieldDefinition declares one typed custom attribute on an entity type.
type FieldDefinition struct {
	// ID is assigned by the store on first save; empty means unsaved.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	Name string `json:"name" yaml:"name"`

	FieldType FieldType `json:"fieldType" yaml:"fieldType"`

	// Options holds the raw option list for select types, either a JSON
	// array of labels or a comma separated list.
	Options *string `json:"options" yaml:"options,omitempty"`

	IsRequired bool `json:"isRequired" yaml:"isRequired,omitempty"`

	// SortOrder is a dense, zero-based position within the owning type.
	SortOrder int `json:"sortOrder" yaml:"sortOrder"`
}

// FieldValue is one stored value in an instance's value bag.
type FieldValue struct {
	FieldDefinitionID string  `json:"fieldDefinitionId" yaml:"fieldDefinitionId"`
	Value             *string `json:"value" yaml:"value"`
}

// SortDefinitions returns a copy of defs ordered by SortOrder. Ties keep their
// input order.
func SortDefinitions(defs []FieldDefinition) []FieldDefinition {
	out := make([]FieldDefinition, len(defs))
	copy(out, defs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// ValidateDefinitions checks a complete definition list as it will be stored.
func ValidateDefinitions(defs []FieldDefinition) error {
	names := make(map[string]int, len(defs))
	ids := make(map[string]int, len(defs))
	seenOrder := make(map[int]bool, len(defs))

	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return NewValidationError(fmt.Sprintf("custom field %d: name is required", i))
		}
		if !def.FieldType.IsValid() {
			return NewValidationError(fmt.Sprintf("custom field %q: unknown field type %q", def.Name, def.FieldType))
		}
		key := strings.ToLower(name)
		if prev, ok := names[key]; ok {
			return NewValidationError(fmt.Sprintf("custom field %q duplicates field %d", def.Name, prev))
		}
		names[key] = i

		if def.ID != "" {
			if prev, ok := ids[def.ID]; ok {
				return NewValidationError(fmt.Sprintf("custom field %q reuses id %s of field %d", def.Name, def.ID, prev))
			}
			ids[def.ID] = i
		}

		if def.SortOrder < 0 || def.SortOrder >= len(defs) {
			return NewValidationError(fmt.Sprintf("custom field %q: sortOrder %d out of range 0..%d", def.Name, def.SortOrder, len(defs)-1))
		}
		if seenOrder[def.SortOrder] {
			return NewValidationError(fmt.Sprintf("custom field %q: duplicate sortOrder %d", def.Name, def.SortOrder))
		}
		seenOrder[def.SortOrder] = true
	}
	return nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
