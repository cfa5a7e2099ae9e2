package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rzbill/stockroom/pkg/cli/format"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/spf13/cobra"
)

func newTypesCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "types",
		Aliases: []string{"type"},
		Short:   "Manage asset, application and certificate types",
	}
	cmd.AddCommand(
		newTypesListCmd(env),
		newTypesGetCmd(env),
		newTypesCreateCmd(env),
		newTypesUpdateCmd(env),
		newTypesDeleteCmd(env),
		newTypesHistoryCmd(env),
	)
	return cmd
}

func newTypesListCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind>",
		Short: "List types of a kind",
		Example: `  stockroom types list assets
  stockroom types list certs -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := types.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			svc, err := env.catalog()
			if err != nil {
				return err
			}
			list, err := svc.ListTypes(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return env.outputResource(cmd, list, func(w io.Writer) error {
				rows := make([][]string, 0, len(list))
				for _, t := range list {
					age := "Unknown"
					if t.Metadata != nil {
						age = formatAge(t.Metadata.CreatedAt)
					}
					rows = append(rows, []string{t.Name, t.ID, strconv.Itoa(len(t.CustomFields)), t.Description, age})
				}
				return NewResourceTable("NAME", "ID", "FIELDS", "DESCRIPTION", "AGE").
					Render(w, "No types found", rows)
			})
		},
	}
}

func newTypesGetCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <type>",
		Short: "Show a type and its custom fields",
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
			return env.outputResource(cmd, t, func(w io.Writer) error {
				fmt.Fprintln(w, format.Label("Name", t.Name))
				fmt.Fprintln(w, format.Label("ID", t.ID))
				fmt.Fprintln(w, format.Label("Kind", string(t.Kind)))
				if t.Description != "" {
					fmt.Fprintln(w, format.Label("Description", t.Description))
				}
				fmt.Fprintln(w)
				return renderDefinitions(w, t.OrderedFields())
			})
		},
	}
}

func newTypesCreateCmd(env *cliEnv) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <kind> <name>",
		Short: "Create a type with no custom fields",
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
			t, err := svc.CreateType(cmd.Context(), &types.EntityType{
				Kind:        kind,
				Name:        args[1],
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s created (%s)\n", format.StatusSymbol(true), kind, t.Name, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Type description")
	return cmd
}

func newTypesUpdateCmd(env *cliEnv) *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "update <kind> <type>",
		Short: "Rename a type or change its description",
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
			cur, err := svc.ResolveType(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") {
				name = cur.Name
			}
			if !cmd.Flags().Changed("description") {
				description = cur.Description
			}
			t, err := svc.UpdateType(cmd.Context(), kind, cur.ID, name, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s updated\n", format.StatusSymbol(true), kind, t.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New type name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newTypesDeleteCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <type>",
		Short: "Delete a type and its templates",
		Long: `Delete a type and every template it owns. The type must have no
instances left.`,
		Args: cobra.ExactArgs(2),
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
			if err := svc.DeleteType(cmd.Context(), kind, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s deleted\n", format.StatusSymbol(true), kind, t.Name)
			return nil
		},
	}
}

func newTypesHistoryCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "history <kind> <type>",
		Short: "Show stored versions of a type",
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
			versions, err := svc.TypeHistory(cmd.Context(), kind, t.ID)
			if err != nil {
				return err
			}
			return env.outputResource(cmd, versions, func(w io.Writer) error {
				rows := make([][]string, 0, len(versions))
				for _, v := range versions {
					rows = append(rows, []string{v.Version, formatAge(v.Timestamp)})
				}
				return NewResourceTable("VERSION", "AGE").Render(w, "No history recorded", rows)
			})
		},
	}
}

// renderDefinitions prints definitions in sortOrder as a table.
func renderDefinitions(w io.Writer, defs []types.FieldDefinition) error {
	rows := make([][]string, 0, len(defs))
	for _, def := range types.SortDefinitions(defs) {
		rows = append(rows, []string{
			strconv.Itoa(def.SortOrder),
			format.Required(def.Name, def.IsRequired),
			string(def.FieldType),
			types.StringValue(def.Options),
			def.ID,
		})
	}
	return NewResourceTable("#", "NAME", "TYPE", "OPTIONS", "ID").Render(w, "No custom fields", rows)
}
