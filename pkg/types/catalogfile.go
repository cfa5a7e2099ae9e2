package types

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// CatalogFile is a YAML document declaring entity types and templates by name.
// Ids are never written in a catalog file; they are resolved when applied.
type CatalogFile struct {
	Types     []TypeSpec     `yaml:"types,omitempty"`
	Templates []TemplateSpec `yaml:"templates,omitempty"`

	lineInfo    map[string]int `yaml:"-"`
	parseErrors []error        `yaml:"-"`
}

// TypeSpec declares an entity type and its ordered custom fields.
type TypeSpec struct {
	Name        string      `yaml:"name"`
	Kind        EntityKind  `yaml:"kind"`
	Description string      `yaml:"description,omitempty"`
	Fields      []FieldSpec `yaml:"fields,omitempty"`
}

// FieldSpec declares one custom field. List order is sort order.
type FieldSpec struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Options  OptionList `yaml:"options,omitempty"`
	Required bool       `yaml:"required,omitempty"`
}

// TemplateSpec declares a template for a type referenced by name.
type TemplateSpec struct {
	Name    string                   `yaml:"name"`
	Kind    EntityKind               `yaml:"kind"`
	Type    string                   `yaml:"type"`
	Scalars ScalarFields             `yaml:"scalars,omitempty"`
	Values  map[string]TemplateValue `yaml:"values,omitempty"`
}

// OptionList accepts either a YAML sequence of labels or a raw string
// ("Red, Blue" or `["Red","Blue"]`). Sequences are stored as a JSON array.
type OptionList struct {
	Raw *string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *OptionList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			o.Raw = nil
			return nil
		}
		v := node.Value
		o.Raw = &v
		return nil
	case yaml.SequenceNode:
		labels := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("options at line %d: expected a list of labels", item.Line)
			}
			labels = append(labels, item.Value)
		}
		b, err := json.Marshal(labels)
		if err != nil {
			return err
		}
		raw := string(b)
		o.Raw = &raw
		return nil
	}
	return fmt.Errorf("options at line %d: expected a string or a list", node.Line)
}

// MarshalYAML implements yaml.Marshaler.
func (o OptionList) MarshalYAML() (interface{}, error) {
	if o.Raw == nil {
		return nil, nil
	}
	return *o.Raw, nil
}

// TemplateValue is a template default for one custom field: a single scalar
// or, for multi-select fields, a list of labels.
type TemplateValue struct {
	Scalar *string
	List   []string
}

// IsList reports whether the value was written as a YAML sequence.
func (v TemplateValue) IsList() bool {
	return v.List != nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *TemplateValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		s := node.Value
		v.Scalar = &s
		return nil
	case yaml.SequenceNode:
		v.List = make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("value at line %d: expected a list of labels", item.Line)
			}
			v.List = append(v.List, item.Value)
		}
		return nil
	}
	return fmt.Errorf("value at line %d: expected a scalar or a list", node.Line)
}

// MarshalYAML implements yaml.Marshaler.
func (v TemplateValue) MarshalYAML() (interface{}, error) {
	if v.List != nil {
		return v.List, nil
	}
	if v.Scalar == nil {
		return nil, nil
	}
	return *v.Scalar, nil
}

// ToEntityType builds an unsaved EntityType; sortOrder follows list position.
func (s TypeSpec) ToEntityType() (*EntityType, error) {
	t := &EntityType{
		Kind:         s.Kind,
		Name:         s.Name,
		Description:  s.Description,
		CustomFields: make([]FieldDefinition, 0, len(s.Fields)),
	}
	for i, f := range s.Fields {
		ft, err := ParseFieldType(f.Type)
		if err != nil {
			return nil, WrapValidationError(err, "type %q field %q", s.Name, f.Name)
		}
		def := FieldDefinition{
			Name:       f.Name,
			FieldType:  ft,
			IsRequired: f.Required,
			SortOrder:  i,
		}
		if ft.HasOptions() {
			def.Options = f.Options.Raw
		}
		t.CustomFields = append(t.CustomFields, def)
	}
	return t, nil
}

// ParseCatalogFile reads and parses a catalog file.
func ParseCatalogFile(filename string) (*CatalogFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseCatalogFileFromBytes(data)
}

// ParseCatalogFileFromBytes parses catalog YAML held in memory.
func ParseCatalogFileFromBytes(data []byte) (*CatalogFile, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse YAML structure: %w", err)
	}

	cf := &CatalogFile{lineInfo: make(map[string]int)}
	if len(node.Content) == 0 {
		return cf, nil
	}

	if err := validateCatalogKeys(&node); err != nil {
		return nil, err
	}

	collectCatalogSpecs(node.Content[0], cf)
	return cf, nil
}

// validateCatalogKeys ensures only known top-level keys are present.
func validateCatalogKeys(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return validateCatalogKeys(node.Content[0])
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("catalog file must be a YAML mapping at the top level")
	}
	valid := map[string]bool{
		"types":     true,
		"templates": true,
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !valid[key.Value] {
			return fmt.Errorf("unknown top-level key '%s' at line %d", key.Value, key.Line)
		}
	}
	return nil
}

func collectCatalogSpecs(root *yaml.Node, cf *CatalogFile) {
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		val := root.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			cf.addParseError(fmt.Errorf("'%s' at line %d must be a list", key.Value, val.Line))
			continue
		}
		for _, item := range val.Content {
			switch key.Value {
			case "types":
				var spec TypeSpec
				if err := item.Decode(&spec); err != nil {
					cf.addParseError(fmt.Errorf("failed to decode type at line %d: %w", item.Line, err))
					continue
				}
				cf.Types = append(cf.Types, spec)
				cf.lineInfo[makeCatalogLineKey("type", string(spec.Kind), spec.Name)] = item.Line
			case "templates":
				var spec TemplateSpec
				if err := item.Decode(&spec); err != nil {
					cf.addParseError(fmt.Errorf("failed to decode template at line %d: %w", item.Line, err))
					continue
				}
				cf.Templates = append(cf.Templates, spec)
				cf.lineInfo[makeCatalogLineKey("template", string(spec.Kind), spec.Name)] = item.Line
			}
		}
	}
}

func (cf *CatalogFile) addParseError(err error) {
	cf.parseErrors = append(cf.parseErrors, err)
}

// ParseErrors returns errors collected while decoding individual entries.
func (cf *CatalogFile) ParseErrors() []error {
	return cf.parseErrors
}

// GetLineInfo returns the line at which a type or template was declared.
func (cf *CatalogFile) GetLineInfo(what string, kind EntityKind, name string) (int, bool) {
	if cf == nil || cf.lineInfo == nil {
		return 0, false
	}
	line, ok := cf.lineInfo[makeCatalogLineKey(what, string(kind), name)]
	return line, ok
}

func makeCatalogLineKey(what, kind, name string) string {
	return what + "/" + kind + "/" + name
}

// Lint validates every declaration and returns all problems found.
func (cf *CatalogFile) Lint() []error {
	var errs []error
	errs = append(errs, cf.parseErrors...)

	declared := make(map[string]bool)
	for _, spec := range cf.Types {
		t, err := spec.ToEntityType()
		if err == nil {
			err = t.Validate()
		}
		if err != nil {
			errs = append(errs, cf.located("type", spec.Kind, spec.Name, err))
			continue
		}
		key := string(spec.Kind) + "/" + strings.ToLower(spec.Name)
		if declared[key] {
			errs = append(errs, cf.located("type", spec.Kind, spec.Name, NewValidationError("declared more than once")))
		}
		declared[key] = true
	}

	for _, spec := range cf.Templates {
		if strings.TrimSpace(spec.Name) == "" {
			errs = append(errs, cf.located("template", spec.Kind, spec.Name, NewValidationError("template name is required")))
			continue
		}
		if !spec.Kind.IsValid() {
			errs = append(errs, cf.located("template", spec.Kind, spec.Name, NewValidationError("unknown entity kind: "+string(spec.Kind))))
		}
		if strings.TrimSpace(spec.Type) == "" {
			errs = append(errs, cf.located("template", spec.Kind, spec.Name, NewValidationError("template type is required")))
		}
		if err := spec.Scalars.Validate(); err != nil {
			errs = append(errs, cf.located("template", spec.Kind, spec.Name, err))
		}
	}
	return errs
}

func (cf *CatalogFile) located(what string, kind EntityKind, name string, err error) error {
	if line, ok := cf.GetLineInfo(what, kind, name); ok {
		return fmt.Errorf("%s %q (kind=%q) at line %d: %w", what, name, kind, line, err)
	}
	return fmt.Errorf("%s %q (kind=%q): %w", what, name, kind, err)
}
