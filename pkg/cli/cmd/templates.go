package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/cli/format"
	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/spf13/cobra"
)

func newTemplatesCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"template", "tpl"},
		Short:   "Manage templates that pre-fill new instances",
	}
	cmd.AddCommand(
		newTemplatesListCmd(env),
		newTemplatesGetCmd(env),
		newTemplatesCreateCmd(env),
		newTemplatesUpdateCmd(env),
		newTemplatesDeleteCmd(env),
	)
	return cmd
}

// resolveOwner returns the catalog, the kind and the type named by the args.
func resolveOwner(ctx context.Context, env *cliEnv, kindArg, typeRef string) (*catalog.Service, *types.EntityType, error) {
	kind, err := types.ParseEntityKind(kindArg)
	if err != nil {
		return nil, nil, err
	}
	svc, err := env.catalog()
	if err != nil {
		return nil, nil, err
	}
	t, err := svc.ResolveType(ctx, kind, typeRef)
	if err != nil {
		return nil, nil, err
	}
	return svc, t, nil
}

func newTemplatesListCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind> <type>",
		Short: "List the templates of a type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := resolveOwner(cmd.Context(), env, args[0], args[1])
			if err != nil {
				return err
			}
			list, err := svc.ListTemplates(cmd.Context(), owner.ID)
			if err != nil {
				return err
			}
			return env.outputResource(cmd, list, func(w io.Writer) error {
				rows := make([][]string, 0, len(list))
				for _, tpl := range list {
					rows = append(rows, []string{tpl.Name, tpl.ID, strconv.Itoa(len(tpl.FieldValues))})
				}
				return NewResourceTable("NAME", "ID", "VALUES").Render(w, "No templates found", rows)
			})
		},
	}
}

func newTemplatesGetCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <type> <template>",
		Short: "Show a template's defaults",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := resolveOwner(cmd.Context(), env, args[0], args[1])
			if err != nil {
				return err
			}
			tpl, err := svc.ResolveTemplate(cmd.Context(), owner.ID, args[2])
			if err != nil {
				return err
			}
			return env.outputResource(cmd, tpl, func(w io.Writer) error {
				fmt.Fprintln(w, format.Label("Name", tpl.Name))
				fmt.Fprintln(w, format.Label("ID", tpl.ID))
				fmt.Fprintln(w, format.Label("Type", owner.Name))
				renderScalars(w, tpl.ScalarDefaults)
				fmt.Fprintln(w)
				return renderFields(w, fields.LoadBag(tpl.FieldValues).Render(owner.CustomFields))
			})
		},
	}
}

func newTemplatesCreateCmd(env *cliEnv) *cobra.Command {
	input := &formInput{}
	cmd := &cobra.Command{
		Use:   "create <kind> <type> <name>",
		Short: "Create a template",
		Example: `  stockroom templates create assets Laptop Standard \
    --scalar locationId=hq --value Colour=Blue --value "Tags=Dev, Sales"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := resolveOwner(cmd.Context(), env, args[0], args[1])
			if err != nil {
				return err
			}
			sess, err := svc.NewSession(cmd.Context(), owner.Kind, owner.ID)
			if err != nil {
				return err
			}
			if err := input.fill(sess); err != nil {
				return err
			}
			scalars, values := sess.Submission()
			tpl, err := svc.CreateTemplate(cmd.Context(), owner.Kind, &types.Template{
				Name:           args[2],
				OwnerTypeID:    owner.ID,
				ScalarDefaults: scalars,
				FieldValues:    values,
			})
			if err != nil {
				return reportError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s template %s created for %s (%s)\n", format.StatusSymbol(true), tpl.Name, owner.Name, tpl.ID)
			return nil
		},
	}
	addFormFlags(cmd, input)
	return cmd
}

func newTemplatesUpdateCmd(env *cliEnv) *cobra.Command {
	input := &formInput{}
	var name string
	cmd := &cobra.Command{
		Use:   "update <kind> <type> <template>",
		Short: "Change a template's name or defaults",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := resolveOwner(cmd.Context(), env, args[0], args[1])
			if err != nil {
				return err
			}
			tpl, err := svc.ResolveTemplate(cmd.Context(), owner.ID, args[2])
			if err != nil {
				return err
			}
			sess, err := svc.NewSession(cmd.Context(), owner.Kind, owner.ID)
			if err != nil {
				return err
			}
			sess.Load(tpl.ScalarDefaults, tpl.FieldValues)
			if err := input.fill(sess); err != nil {
				return err
			}
			tpl.ScalarDefaults, tpl.FieldValues = sess.Submission()
			if name != "" {
				tpl.Name = name
			}
			if _, err := svc.UpdateTemplate(cmd.Context(), owner.Kind, tpl); err != nil {
				return reportError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s template %s updated\n", format.StatusSymbol(true), tpl.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New template name")
	addFormFlags(cmd, input)
	return cmd
}

func newTemplatesDeleteCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <type> <template>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := resolveOwner(cmd.Context(), env, args[0], args[1])
			if err != nil {
				return err
			}
			tpl, err := svc.ResolveTemplate(cmd.Context(), owner.ID, args[2])
			if err != nil {
				return err
			}
			if err := svc.DeleteTemplate(cmd.Context(), owner.ID, tpl.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s template %s deleted\n", format.StatusSymbol(true), tpl.Name)
			return nil
		},
	}
}

func addFormFlags(cmd *cobra.Command, input *formInput) {
	cmd.Flags().StringArrayVar(&input.scalars, "scalar", nil, "Scalar value as name=value (purchaseCost, depreciationMonths, locationId, notes)")
	cmd.Flags().StringArrayVar(&input.values, "value", nil, "Custom field value as field=input")
	cmd.Flags().StringArrayVar(&input.unset, "unset", nil, "Custom field to clear")
}

func renderScalars(w io.Writer, s types.ScalarFields) {
	for _, name := range types.ScalarNames() {
		if v, _ := s.Get(name); v != "" {
			fmt.Fprintln(w, format.Label(name, v))
		}
	}
}

// renderFields prints rendered custom fields with their decoded values.
func renderFields(w io.Writer, rendered []fields.RenderedField) error {
	rows := make([][]string, 0, len(rendered))
	for _, rf := range rendered {
		value := rf.Value.String()
		if len(rf.Orphans) > 0 {
			value += " " + format.Warning("(not in options: %v)", rf.Orphans)
		}
		rows = append(rows, []string{
			format.Required(rf.Definition.Name, rf.Definition.IsRequired),
			string(rf.Definition.FieldType),
			value,
		})
	}
	return NewResourceTable("FIELD", "TYPE", "VALUE").Render(w, "No custom fields", rows)
}
