package fields

import (
	"fmt"
	"strings"

	"github.com/rzbill/stockroom/pkg/types"
)

// IssueKind classifies a validation issue.
type IssueKind string

const (
	// IssueRequired means a required field has no value.
	IssueRequired IssueKind = "required"
	// IssueFormat means a value does not parse as its field type.
	IssueFormat IssueKind = "format"
)

// Issue is a problem with one field. Issues block submission but never
// abort an editing session.
type Issue struct {
	FieldDefinitionID string    `json:"fieldDefinitionId"`
	Field             string    `json:"field"`
	Kind              IssueKind `json:"kind"`
	Message           string    `json:"message"`
}

// Issues is the result of validating a bag.
type Issues []Issue

// Err folds the issues into a single validation error, or nil.
func (is Issues) Err() error {
	if len(is) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(is))
	for _, i := range is {
		msgs = append(msgs, fmt.Sprintf("%s: %s", i.Field, i.Message))
	}
	return types.NewValidationError(strings.Join(msgs, "; "))
}

// ForField returns the issues of one definition.
func (is Issues) ForField(id string) Issues {
	var out Issues
	for _, i := range is {
		if i.FieldDefinitionID == id {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks bag against defs in sortOrder.
//
// A required field fails when its encoded value would be null or empty.
// Boolean fields always carry a value and never fail. A required MultiSelect
// with no selection fails, since its empty encoding is dropped on submission.
// Select values outside the option list are accepted.
func Validate(defs []types.FieldDefinition, bag *Bag) Issues {
	var issues Issues
	for _, def := range types.SortDefinitions(defs) {
		raw, _ := bag.Get(def.ID)
		if raw != nil && *raw == NoneSentinel {
			raw = nil
		}
		v := Decode(def.FieldType, def.Options, raw)

		if def.IsRequired && def.FieldType != types.FieldTypeBoolean {
			if enc := Encode(v); enc == nil || *enc == "" {
				issues = append(issues, Issue{
					FieldDefinitionID: def.ID,
					Field:             def.Name,
					Kind:              IssueRequired,
					Message:           "is required",
				})
				continue
			}
		}
		if msg := checkFormat(v); msg != "" {
			issues = append(issues, Issue{
				FieldDefinitionID: def.ID,
				Field:             def.Name,
				Kind:              IssueFormat,
				Message:           msg,
			})
		}
	}
	return issues
}
