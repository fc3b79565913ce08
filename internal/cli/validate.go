package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCmd checks catalogue files without touching any store.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a game catalogue file or directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			loader, err := openCatalog(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, def := range loader.Games() {
				fmt.Fprintf(out, "%-40s %-8s items=%d tasks=%d\n", def.ID, def.Variant, len(def.Items), len(def.Tasks))
			}
			fmt.Fprintf(out, "%d games ok (%s)\n", len(loader.Games()), sourceName(path))
			return nil
		},
	}
}
