package cli

import (
	"fmt"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/spf13/cobra"
)

var quarantineCmd = &cobra.Command{
	Use:   "quarantine",
	Short: "Inspect and apply quarantine state",
	RunE:  runQuarantineList,
}

var quarantineApplyCmd = &cobra.Command{
	Use:   "apply <report-path>",
	Short: "Apply a verification report",
	Long: `Removes every failing id in the report from the whitelist and
upserts a quarantine entry for it. Re-applying the same report is a
no-op beyond timestamps.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuarantineApply,
}

func init() {
	quarantineCmd.AddCommand(quarantineApplyCmd)
}

// GetQuarantineCmd exports the quarantine command
func GetQuarantineCmd() *cobra.Command {
	return quarantineCmd
}

func runQuarantineList(cmd *cobra.Command, args []string) error {
	entries, err := catalog.NewStore(dataDirFlag).LoadQuarantine()
	if err != nil {
		return fmt.Errorf("loading quarantine: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("Quarantine is empty")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("%-40s %s  %s\n", entry.ID, entry.QuarantinedAt.Format("2006-01-02"), entry.Reason)
	}
	return nil
}

func runQuarantineApply(cmd *cobra.Command, args []string) error {
	gate, err := buildGate()
	if err != nil {
		return err
	}

	result, err := gate.ApplyQuarantine(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("applying quarantine: %w", err)
	}

	fmt.Printf("Removed from whitelist: %d\n", len(result.RemovedFromWhitelist))
	for _, id := range result.RemovedFromWhitelist {
		fmt.Printf("  %s\n", id)
	}
	fmt.Printf("Quarantined: %d\n", len(result.Quarantined))
	return nil
}
