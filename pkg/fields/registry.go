package fields

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rzbill/stockroom/pkg/types"
)

// ErrIndexOutOfRange is returned for registry positions outside the list.
var ErrIndexOutOfRange = errors.New("field index out of range")

// Registry is the editable, ordered definition list of one type during an
// edit session. It is not safe for concurrent use; each editor owns one.
type Registry struct {
	defs []types.FieldDefinition
}

// NewRegistry copies defs into a registry ordered by sortOrder.
func NewRegistry(defs []types.FieldDefinition) *Registry {
	return &Registry{defs: types.SortDefinitions(defs)}
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Definitions returns a copy of the list in editor order, sortOrder values as
// currently held.
func (r *Registry) Definitions() []types.FieldDefinition {
	out := make([]types.FieldDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// At returns the definition at position i.
func (r *Registry) At(i int) (types.FieldDefinition, error) {
	if err := r.check(i); err != nil {
		return types.FieldDefinition{}, err
	}
	return r.defs[i], nil
}

// IndexOf finds a definition by id, then by case-insensitive name.
func (r *Registry) IndexOf(ref string) int {
	for i, def := range r.defs {
		if def.ID != "" && def.ID == ref {
			return i
		}
	}
	for i, def := range r.defs {
		if strings.EqualFold(def.Name, ref) {
			return i
		}
	}
	return -1
}

// Append adds an unsaved Text definition at the end and returns its index.
func (r *Registry) Append() int {
	r.defs = append(r.defs, types.FieldDefinition{
		FieldType: types.FieldTypeText,
		SortOrder: len(r.defs),
	})
	return len(r.defs) - 1
}

// MoveUp swaps entry i with i-1. Moving the first entry is a no-op.
func (r *Registry) MoveUp(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	if i == 0 {
		return nil
	}
	r.swap(i, i-1)
	return nil
}

// MoveDown swaps entry i with i+1. Moving the last entry is a no-op.
func (r *Registry) MoveDown(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	if i == len(r.defs)-1 {
		return nil
	}
	r.swap(i, i+1)
	return nil
}

// swap exchanges two adjacent entries and renumbers only those two.
func (r *Registry) swap(i, j int) {
	r.defs[i], r.defs[j] = r.defs[j], r.defs[i]
	r.defs[i].SortOrder = i
	r.defs[j].SortOrder = j
}

// MoveTo moves entry from to position to, shifting the entries between.
// Every entry is renumbered.
func (r *Registry) MoveTo(from, to int) error {
	if err := r.check(from); err != nil {
		return err
	}
	if err := r.check(to); err != nil {
		return err
	}
	if from != to {
		def := r.defs[from]
		r.defs = append(r.defs[:from], r.defs[from+1:]...)
		r.defs = append(r.defs[:to], append([]types.FieldDefinition{def}, r.defs[to:]...)...)
	}
	r.renumber()
	return nil
}

// Remove deletes entry i. Remaining entries keep their sortOrder until
// Serialize.
func (r *Registry) Remove(i int) error {
	if err := r.check(i); err != nil {
		return err
	}
	r.defs = append(r.defs[:i], r.defs[i+1:]...)
	return nil
}

// Rename sets the name of entry i.
func (r *Registry) Rename(i int, name string) error {
	if err := r.check(i); err != nil {
		return err
	}
	r.defs[i].Name = name
	return nil
}

// SetFieldType changes the type of entry i. Options are dropped when the new
// type has none.
func (r *Registry) SetFieldType(i int, ft types.FieldType) error {
	if err := r.check(i); err != nil {
		return err
	}
	if !ft.IsValid() {
		return types.NewValidationError(fmt.Sprintf("unknown field type %q", ft))
	}
	r.defs[i].FieldType = ft
	if !ft.HasOptions() {
		r.defs[i].Options = nil
	}
	return nil
}

// SetOptions replaces the raw option string of entry i.
func (r *Registry) SetOptions(i int, options *string) error {
	if err := r.check(i); err != nil {
		return err
	}
	if options == nil {
		r.defs[i].Options = nil
		return nil
	}
	o := *options
	r.defs[i].Options = &o
	return nil
}

// SetRequired flags entry i as required or optional.
func (r *Registry) SetRequired(i int, required bool) error {
	if err := r.check(i); err != nil {
		return err
	}
	r.defs[i].IsRequired = required
	return nil
}

// Serialize returns the list as submitted for a save: every entry gets
// sortOrder equal to its position, whatever it held before.
func (r *Registry) Serialize() []types.FieldDefinition {
	out := r.Definitions()
	for i := range out {
		out[i].SortOrder = i
	}
	return out
}

func (r *Registry) renumber() {
	for i := range r.defs {
		r.defs[i].SortOrder = i
	}
}

func (r *Registry) check(i int) error {
	if i < 0 || i >= len(r.defs) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, len(r.defs))
	}
	return nil
}
