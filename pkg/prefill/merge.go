// Package prefill seeds new instance forms from templates.
//
// Merging is fill-if-empty: a template value lands in a slot only when the
// slot is empty at the moment of the merge, so whatever the user entered
// always wins regardless of the order in which templates are applied.
package prefill

import (
	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/types"
)

// Form is the in-progress state of a new instance: the four scalar slots and
// the custom field value bag.
type Form struct {
	Scalars types.ScalarFields
	Values  *fields.Bag
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{Values: fields.NewBag()}
}

// Clone returns an independent copy of the form.
func (f *Form) Clone() *Form {
	return &Form{Scalars: f.Scalars, Values: f.bag().Clone()}
}

func (f *Form) bag() *fields.Bag {
	if f.Values == nil {
		f.Values = fields.NewBag()
	}
	return f.Values
}

// Result lists what a merge wrote.
type Result struct {
	Scalars []string `json:"scalars"`
	Fields  []string `json:"fields"`
}

// Changed reports whether the merge wrote anything.
func (r Result) Changed() bool {
	return len(r.Scalars) > 0 || len(r.Fields) > 0
}

// Apply merges tpl into form. Scalars and field values are copied only into
// empty target slots and only when the template holds a non-empty value.
// The template's owner type is not checked here.
func Apply(form *Form, tpl *types.Template) Result {
	res := Result{Scalars: []string{}, Fields: []string{}}
	if form == nil || tpl == nil {
		return res
	}

	for _, name := range types.ScalarNames() {
		src, _ := tpl.ScalarDefaults.Get(name)
		if src == "" {
			continue
		}
		dst, _ := form.Scalars.Get(name)
		if dst != "" {
			continue
		}
		_ = form.Scalars.Set(name, src)
		res.Scalars = append(res.Scalars, name)
	}

	src := fields.LoadBag(tpl.FieldValues)
	bag := form.bag()
	for _, id := range src.IDs() {
		if src.IsEmpty(id) || !bag.IsEmpty(id) {
			continue
		}
		v, _ := src.Get(id)
		bag.Set(id, v)
		res.Fields = append(res.Fields, id)
	}
	return res
}
