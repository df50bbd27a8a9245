package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runGraph(cmd *cobra.Command, f *rootFlags) error {
	ws, err := loadWorkspace(f)
	if err != nil {
		return fmt.Errorf("loading workspace: %w", err)
	}

	members, err := ws.Members()
	if err != nil {
		return fmt.Errorf("computing dependency order: %w", err)
	}

	for _, m := range members {
		fmt.Fprintln(cmd.OutOrStdout(), m.Name)
	}
	return nil
}
