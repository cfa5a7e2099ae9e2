package cmd

import (
	"fmt"

	"github.com/rzbill/stockroom/pkg/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the stockroom version information",
		Long:  `Display detailed version information about the stockroom binary.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
