package cmd

import (
	"fmt"
	"io"

	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/cli/format"
	"github.com/rzbill/stockroom/pkg/fields"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/spf13/cobra"
)

func newInstancesCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"instance", "inst"},
		Short:   "Manage assets, applications and certificates",
	}
	cmd.AddCommand(
		newInstancesListCmd(env),
		newInstancesGetCmd(env),
		newInstancesCreateCmd(env),
		newInstancesUpdateCmd(env),
		newInstancesDeleteCmd(env),
		newInstancesPrefillCmd(env),
	)
	return cmd
}

func newInstancesListCmd(env *cliEnv) *cobra.Command {
	var typeRef string
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List instances of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := types.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			svc, err := env.catalog()
			if err != nil {
				return err
			}
			all, err := svc.ListTypes(cmd.Context(), kind)
			if err != nil {
				return err
			}
			typeNames := make(map[string]string, len(all))
			for _, t := range all {
				typeNames[t.ID] = t.Name
			}

			typeID := ""
			if typeRef != "" {
				t, err := svc.ResolveType(cmd.Context(), kind, typeRef)
				if err != nil {
					return err
				}
				typeID = t.ID
			}
			list, err := svc.ListInstances(cmd.Context(), kind, typeID)
			if err != nil {
				return err
			}
			return env.outputResource(cmd, list, func(w io.Writer) error {
				rows := make([][]string, 0, len(list))
				for _, inst := range list {
					age := "Unknown"
					if inst.Metadata != nil {
						age = formatAge(inst.Metadata.CreatedAt)
					}
					rows = append(rows, []string{inst.Name, inst.ID, typeNames[inst.TypeID], inst.Scalars.LocationID, age})
				}
				return NewResourceTable("NAME", "ID", "TYPE", "LOCATION", "AGE").Render(w, "No instances found", rows)
			})
		},
	}
	cmd.Flags().StringVar(&typeRef, "type", "", "Only list instances of this type")
	return cmd
}

func newInstancesGetCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show an instance with its custom fields",
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
			inst, err := svc.GetInstance(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			rendered, err := svc.RenderInstance(cmd.Context(), inst)
			if err != nil {
				return err
			}
			return env.outputResource(cmd, inst, func(w io.Writer) error {
				fmt.Fprintln(w, format.Label("Name", inst.Name))
				fmt.Fprintln(w, format.Label("ID", inst.ID))
				fmt.Fprintln(w, format.Label("Type", inst.TypeID))
				renderScalars(w, inst.Scalars)
				fmt.Fprintln(w)
				return renderFields(w, rendered)
			})
		},
	}
}

func newInstancesCreateCmd(env *cliEnv) *cobra.Command {
	input := &formInput{}
	var templateRef string
	cmd := &cobra.Command{
		Use:   "create <kind> <type> <name>",
		Short: "Create an instance",
		Long: `Create an instance. With --template, the template's defaults fill
every scalar and custom field left empty by the flags.`,
		Example: `  stockroom instances create assets Laptop LT-0042 --template Standard --value RAM=32`,
		Args:    cobra.ExactArgs(3),
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
			inst, err := svc.CreateInstance(cmd.Context(), owner.Kind, catalog.InstanceSubmission{
				Name:              args[2],
				TypeID:            owner.ID,
				TemplateID:        templateRef,
				Scalars:           scalars,
				CustomFieldValues: values,
			})
			if err != nil {
				return reportError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s created (%s)\n", format.StatusSymbol(true), owner.Kind, inst.Name, inst.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&templateRef, "template", "", "Template to pre-fill from (name or id)")
	addFormFlags(cmd, input)
	return cmd
}

func newInstancesUpdateCmd(env *cliEnv) *cobra.Command {
	input := &formInput{}
	var name string
	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Change an instance's name or values",
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
			inst, err := svc.GetInstance(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			sess, err := svc.NewSession(cmd.Context(), kind, inst.TypeID)
			if err != nil {
				return err
			}
			sess.Load(inst.Scalars, inst.CustomFieldValues)
			if err := input.fill(sess); err != nil {
				return err
			}
			scalars, values := sess.Submission()
			updated, err := svc.UpdateInstance(cmd.Context(), kind, inst.ID, catalog.InstanceSubmission{
				Name:              name,
				Scalars:           scalars,
				CustomFieldValues: values,
			})
			if err != nil {
				return reportError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s updated\n", format.StatusSymbol(true), kind, updated.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New instance name")
	addFormFlags(cmd, input)
	return cmd
}

func newInstancesDeleteCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete an instance",
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
			if err := svc.DeleteInstance(cmd.Context(), kind, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s deleted\n", format.StatusSymbol(true), kind, args[1])
			return nil
		},
	}
}

func newInstancesPrefillCmd(env *cliEnv) *cobra.Command {
	input := &formInput{}
	var templateRef string
	cmd := &cobra.Command{
		Use:   "prefill <kind> <type>",
		Short: "Preview a new instance form after applying a template",
		Long: `Preview the form a new instance would start with. Nothing is stored;
validation issues are listed but do not fail the command.`,
		Args: cobra.ExactArgs(2),
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
			res, err := svc.Prefill(cmd.Context(), owner.Kind, owner.ID, catalog.PrefillRequest{
				TemplateID:        templateRef,
				Scalars:           scalars,
				CustomFieldValues: values,
			})
			if err != nil {
				return err
			}
			return env.outputResource(cmd, res, func(w io.Writer) error {
				renderScalars(w, res.Scalars)
				fmt.Fprintln(w)
				if err := renderFields(w, res.Fields); err != nil {
					return err
				}
				printIssues(w, res.Issues)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&templateRef, "template", "", "Template to apply (name or id)")
	addFormFlags(cmd, input)
	return cmd
}

func printIssues(w io.Writer, issues fields.Issues) {
	if len(issues) > 0 {
		fmt.Fprintln(w)
		format.PrintIssues(w, issues)
	}
}
