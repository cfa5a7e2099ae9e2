package cmd

import (
	"fmt"
	"strings"

	"github.com/rzbill/stockroom/pkg/prefill"
	"github.com/rzbill/stockroom/pkg/types"
)

// formInput collects --scalar and --value flags for templates and instances.
type formInput struct {
	scalars []string
	values  []string
	unset   []string
}

// splitPair splits "key=value" at the first '='.
func splitPair(flag, s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return "", "", types.NewValidationError(fmt.Sprintf("--%s %q: expected key=value", flag, s))
	}
	return strings.TrimSpace(k), v, nil
}

// fill writes the flags into sess. Values are parsed per field type, so
// "Tags=Dev, Sales" selects two labels on a MultiSelect.
func (f *formInput) fill(sess *prefill.Session) error {
	for _, s := range f.scalars {
		k, v, err := splitPair("scalar", s)
		if err != nil {
			return err
		}
		if err := sess.SetScalar(k, v); err != nil {
			return err
		}
	}
	for _, s := range f.values {
		k, v, err := splitPair("value", s)
		if err != nil {
			return err
		}
		if err := sess.SetInput(k, v); err != nil {
			return err
		}
	}
	for _, ref := range f.unset {
		id := ref
		for _, def := range sess.Definitions() {
			if strings.EqualFold(def.Name, ref) {
				id = def.ID
			}
		}
		if err := sess.SetValue(id, nil); err != nil {
			return err
		}
	}
	return nil
}
