package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rzbill/stockroom/pkg/cli/format"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/spf13/cobra"
)

type applyOptions struct {
	files  []string
	dryRun bool
}

func newApplyCmd(env *cliEnv) *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:   "apply -f <file>...",
		Short: "Create or update types and templates from catalog files",
		Long: `Apply catalog files. Types and templates are matched by name, so
applying the same file twice updates in place. Fields keep their ids when
a field of the same name is declared again.`,
		Example: `  stockroom apply -f catalog.yaml
  stockroom apply -f types.yaml -f templates.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := append(opts.files, args...)
			if len(files) == 0 {
				return errors.New("no catalog file given; use -f")
			}
			for _, file := range files {
				if err := applyFile(cmd, env, file, opts.dryRun); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&opts.files, "filename", "f", nil, "Catalog file to apply")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Only lint the files")
	return cmd
}

func applyFile(cmd *cobra.Command, env *cliEnv, file string, dryRun bool) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	reporter := format.NewReporter(cmd.ErrOrStderr(), file, data)

	cf, err := types.ParseCatalogFileFromBytes(data)
	if err != nil {
		reporter.PrintErrors([]error{err})
		return fmt.Errorf("%s: invalid catalog file", file)
	}
	if errs := cf.Lint(); len(errs) > 0 {
		reporter.PrintErrors(errs)
		return fmt.Errorf("%s: %d error(s)", file, len(errs))
	}

	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintf(out, "%s %s is valid (%d types, %d templates)\n",
			format.StatusSymbol(true), file, len(cf.Types), len(cf.Templates))
		return nil
	}

	svc, err := env.catalog()
	if err != nil {
		return err
	}
	res, err := svc.ApplyCatalog(cmd.Context(), cf)
	if err != nil {
		reporter.PrintErrors([]error{err})
		return fmt.Errorf("%s: apply failed", file)
	}
	return env.outputResource(cmd, res, func(w io.Writer) error {
		printApplied(w, "type", "created", res.TypesCreated)
		printApplied(w, "type", "updated", res.TypesUpdated)
		printApplied(w, "template", "created", res.TemplatesCreated)
		printApplied(w, "template", "updated", res.TemplatesUpdated)
		return nil
	})
}

func printApplied(w io.Writer, what, verb string, names []string) {
	for _, name := range names {
		fmt.Fprintf(w, "%s %s %s %s\n", format.StatusSymbol(true), what, name, verb)
	}
}
