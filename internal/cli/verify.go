package cli

import (
	"fmt"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/config"
	"github.com/capguard/capguard/internal/policy"
	"github.com/capguard/capguard/internal/security"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the whitelist against current policy",
	Long: `Recomputes every whitelisted id's risk assessment under the
current security policy and writes a date-stamped report. Approvals
granted under an older policy do not survive a policy tightening.`,
	RunE: runVerify,
}

// GetVerifyCmd exports the verify command
func GetVerifyCmd() *cobra.Command {
	return verifyCmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	gate, err := buildGate()
	if err != nil {
		return err
	}

	result, err := gate.Verify(cmd.Context())
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Printf("Report written: %s\n", result.ReportPath)
	fmt.Printf("Passed: %d  Failed: %d\n", len(result.Report.Passed), len(result.Report.Failed))
	for _, failure := range result.Report.Failed {
		fmt.Printf("  FAIL %s (%s/%d)\n", failure.ID, failure.RiskTier, failure.RiskScore)
	}
	return nil
}

func buildGate() (*security.Gate, error) {
	securityPolicy, err := config.NewLoader(configDirFlag).SecurityPolicy()
	if err != nil {
		return nil, fmt.Errorf("loading security policy: %w", err)
	}

	engine, err := policy.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("initializing policy engine: %w", err)
	}

	return &security.Gate{
		Store:  catalog.NewStore(dataDirFlag),
		Policy: securityPolicy,
		Engine: engine,
	}, nil
}
