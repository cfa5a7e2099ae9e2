package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rzbill/stockroom/pkg/cli/format"
	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/spf13/cobra"
)

func newFieldsCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fields",
		Aliases: []string{"field"},
		Short:   "Edit the custom fields of a type",
		Long: `Edit the ordered custom field definitions of a type. Each edit loads
the current list, applies one change and saves the whole list back.`,
	}
	cmd.AddCommand(
		newFieldsListCmd(env),
		newFieldsAddCmd(env),
		newFieldsSetCmd(env),
		newFieldsRemoveCmd(env),
		newFieldsMoveCmd(env, "move-up", "Move a field one position up", func(r *fields.Registry, i int) error { return r.MoveUp(i) }),
		newFieldsMoveCmd(env, "move-down", "Move a field one position down", func(r *fields.Registry, i int) error { return r.MoveDown(i) }),
		newFieldsMoveToCmd(env),
	)
	return cmd
}

// editFields loads the registry of a type, applies edit and saves the result.
func editFields(ctx context.Context, env *cliEnv, kindArg, typeRef string, edit func(*fields.Registry) error) (*types.EntityType, error) {
	kind, err := types.ParseEntityKind(kindArg)
	if err != nil {
		return nil, err
	}
	svc, err := env.catalog()
	if err != nil {
		return nil, err
	}
	t, err := svc.ResolveType(ctx, kind, typeRef)
	if err != nil {
		return nil, err
	}
	reg := fields.NewRegistry(t.CustomFields)
	if err := edit(reg); err != nil {
		return nil, err
	}
	return svc.SaveFieldDefinitions(ctx, kind, t.ID, reg.Serialize())
}

// fieldIndex resolves a field by id or name, or by a zero-based position.
func fieldIndex(reg *fields.Registry, ref string) (int, error) {
	if i := reg.IndexOf(ref); i >= 0 {
		return i, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if _, err := reg.At(n); err == nil {
			return n, nil
		}
	}
	return -1, types.NewValidationError(fmt.Sprintf("no field %q", ref))
}

func newFieldsListCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind> <type>",
		Short: "List the custom fields of a type in order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := types.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			svc, err := env.catalog()
			if err != nil {
				return err
			}
			t, err := svc.ResolveType(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			defs := t.OrderedFields()
			return env.outputResource(cmd, defs, func(w io.Writer) error {
				return renderDefinitions(w, defs)
			})
		},
	}
}

type fieldFlags struct {
	name      string
	fieldType string
	options   string
	required  bool
}

func (f *fieldFlags) apply(cmd *cobra.Command, reg *fields.Registry, i int) error {
	if cmd.Flags().Changed("name") {
		if err := reg.Rename(i, f.name); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("type") {
		ft, err := types.ParseFieldType(f.fieldType)
		if err != nil {
			return err
		}
		if err := reg.SetFieldType(i, ft); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("options") {
		var opts *string
		if f.options != "" {
			opts = &f.options
		}
		if err := reg.SetOptions(i, opts); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("required") {
		if err := reg.SetRequired(i, f.required); err != nil {
			return err
		}
	}
	return nil
}

func newFieldsAddCmd(env *cliEnv) *cobra.Command {
	flags := &fieldFlags{}
	cmd := &cobra.Command{
		Use:   "add <kind> <type> <name>",
		Short: "Append a custom field",
		Example: `  stockroom fields add assets Laptop Colour --type SingleSelect --options "Red, Blue" --required
  stockroom fields add assets Laptop "Purchase Date" --type Date`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := editFields(cmd.Context(), env, args[0], args[1], func(reg *fields.Registry) error {
				i := reg.Append()
				if err := reg.Rename(i, args[2]); err != nil {
					return err
				}
				return flags.apply(cmd, reg, i)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s field %s added to %s\n", format.StatusSymbol(true), args[2], t.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.fieldType, "type", "t", string(types.FieldTypeText), "Field type (Text, Number, Date, Boolean, SingleSelect, MultiSelect, Url)")
	cmd.Flags().StringVar(&flags.options, "options", "", "Options for select types, comma separated or a JSON array")
	cmd.Flags().BoolVar(&flags.required, "required", false, "Require a value on every instance")
	return cmd
}

func newFieldsSetCmd(env *cliEnv) *cobra.Command {
	flags := &fieldFlags{}
	cmd := &cobra.Command{
		Use:   "set <kind> <type> <field>",
		Short: "Change a custom field's name, type, options or required flag",
		Long: `Change a custom field in place. Renaming keeps the field's id, so
stored values stay attached. Changing the type does not migrate stored values.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := editFields(cmd.Context(), env, args[0], args[1], func(reg *fields.Registry) error {
				i, err := fieldIndex(reg, args[2])
				if err != nil {
					return err
				}
				return flags.apply(cmd, reg, i)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s field %s of %s updated\n", format.StatusSymbol(true), args[2], t.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.name, "name", "", "New field name")
	cmd.Flags().StringVarP(&flags.fieldType, "type", "t", "", "New field type")
	cmd.Flags().StringVar(&flags.options, "options", "", "New options; empty clears them")
	cmd.Flags().BoolVar(&flags.required, "required", false, "Require a value on every instance")
	return cmd
}

func newFieldsRemoveCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <kind> <type> <field>",
		Short: "Remove a custom field",
		Long: `Remove a custom field. Values already stored on instances are kept
but no longer rendered.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := editFields(cmd.Context(), env, args[0], args[1], func(reg *fields.Registry) error {
				i, err := fieldIndex(reg, args[2])
				if err != nil {
					return err
				}
				return reg.Remove(i)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s field %s removed from %s\n", format.StatusSymbol(true), args[2], t.Name)
			return nil
		},
	}
}

func newFieldsMoveCmd(env *cliEnv, use, short string, move func(*fields.Registry, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <kind> <type> <field>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := editFields(cmd.Context(), env, args[0], args[1], func(reg *fields.Registry) error {
				i, err := fieldIndex(reg, args[2])
				if err != nil {
					return err
				}
				return move(reg, i)
			})
			if err != nil {
				return err
			}
			return renderDefinitions(cmd.OutOrStdout(), t.OrderedFields())
		},
	}
}

func newFieldsMoveToCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "move <kind> <type> <field> <position>",
		Short: "Move a field to a zero-based position",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := strconv.Atoi(args[3])
			if err != nil {
				return types.NewValidationError(fmt.Sprintf("position %q is not a number", args[3]))
			}
			t, err := editFields(cmd.Context(), env, args[0], args[1], func(reg *fields.Registry) error {
				i, err := fieldIndex(reg, args[2])
				if err != nil {
					return err
				}
				return reg.MoveTo(i, to)
			})
			if err != nil {
				return err
			}
			return renderDefinitions(cmd.OutOrStdout(), t.OrderedFields())
		},
	}
}
