package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidenhill/relsel/internal/logger"
	"github.com/tidenhill/relsel/internal/state"
)

func runState(cmd *cobra.Command, f *rootFlags, verbose bool) error {
	ws, err := loadWorkspace(f)
	if err != nil {
		return fmt.Errorf("loading workspace: %w", err)
	}

	states, err := ws.MembersStates()
	if err != nil {
		return fmt.Errorf("computing member states: %w", err)
	}

	report := state.Report(states, "WORKSPACE STATE", logger.ReportWidth(), true, verbose, true)
	fmt.Fprint(cmd.OutOrStdout(), report)
	return nil
}
