package fields

import (
	"sort"

	"github.com/rzbill/stockroom/pkg/types"
)

// Bag maps definition ids to stored values for one instance or template.
// Render order comes from the definitions, never from the bag.
type Bag struct {
	values map[string]*string
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{values: make(map[string]*string)}
}

// LoadBag builds a bag from stored field values.
func LoadBag(list []types.FieldValue) *Bag {
	b := NewBag()
	b.Load(list)
	return b
}

// Load adds the given values to the bag. Later duplicates win. Values whose
// definition no longer exists are kept as-is.
func (b *Bag) Load(list []types.FieldValue) {
	for _, fv := range list {
		if fv.FieldDefinitionID == "" {
			continue
		}
		b.values[fv.FieldDefinitionID] = copyPtr(fv.Value)
	}
}

// Get returns the raw value for id and whether the key is present.
func (b *Bag) Get(id string) (*string, bool) {
	v, ok := b.values[id]
	return copyPtr(v), ok
}

// Set stores a raw value for id. A nil value keeps the key with a null value.
func (b *Bag) Set(id string, value *string) {
	b.values[id] = copyPtr(value)
}

// SetValue encodes v and stores it under id.
func (b *Bag) SetValue(id string, v Value) {
	b.values[id] = Encode(v)
}

// Unset removes id from the bag.
func (b *Bag) Unset(id string) {
	delete(b.values, id)
}

// IsEmpty reports whether id has no usable value: absent, null, empty or the
// select sentinel.
func (b *Bag) IsEmpty(id string) bool {
	return isEmptyRaw(b.values[id])
}

// Len returns the number of keys, including empty ones.
func (b *Bag) Len() int {
	return len(b.values)
}

// IDs returns the keys in sorted order.
func (b *Bag) IDs() []string {
	ids := make([]string, 0, len(b.values))
	for id := range b.values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy.
func (b *Bag) Clone() *Bag {
	c := &Bag{values: make(map[string]*string, len(b.values))}
	for id, v := range b.values {
		c.values[id] = copyPtr(v)
	}
	return c
}

// ToSubmission emits the wire list for a create or update request. Entries
// that are null, empty or the select sentinel are dropped; entries for
// deleted definitions are not. Output is sorted by definition id.
func (b *Bag) ToSubmission() []types.FieldValue {
	out := []types.FieldValue{}
	for _, id := range b.IDs() {
		v := b.values[id]
		if isEmptyRaw(v) {
			continue
		}
		out = append(out, types.FieldValue{FieldDefinitionID: id, Value: copyPtr(v)})
	}
	return out
}

// RenderedField is one editor control: its definition, decoded value and,
// for select types, the parsed options and any orphaned selections.
type RenderedField struct {
	Definition types.FieldDefinition `json:"definition"`
	Value      Value                 `json:"-"`
	Raw        *string               `json:"value"`
	Options    []string              `json:"options,omitempty"`
	Orphans    []string              `json:"orphans,omitempty"`
}

// Render walks defs in sortOrder and decodes each definition's value.
// Absent keys decode to the type's empty value; bag entries without a
// definition are skipped.
func (b *Bag) Render(defs []types.FieldDefinition) []RenderedField {
	ordered := types.SortDefinitions(defs)
	out := make([]RenderedField, 0, len(ordered))
	for _, def := range ordered {
		raw := b.values[def.ID]
		if raw != nil && *raw == NoneSentinel {
			raw = nil
		}
		rf := RenderedField{
			Definition: def,
			Value:      Decode(def.FieldType, def.Options, raw),
		}
		rf.Raw = Encode(rf.Value)
		if def.FieldType.HasOptions() {
			rf.Options = ParseOptions(def.Options)
			rf.Orphans = Orphans(rf.Value, rf.Options)
		}
		out = append(out, rf)
	}
	return out
}

func isEmptyRaw(v *string) bool {
	return v == nil || *v == "" || *v == NoneSentinel
}

func copyPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
