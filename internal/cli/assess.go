package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/config"
	"github.com/capguard/capguard/internal/risk"
	"github.com/spf13/cobra"
)

var assessCmd = &cobra.Command{
	Use:   "assess <id>",
	Short: "Assess one catalog item's risk",
	Long: `Recomputes the item's risk score and tier from its security
signals under the current security policy.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

var assessPrettyFlag bool

func init() {
	assessCmd.Flags().BoolVarP(&assessPrettyFlag, "pretty", "p", true, "Pretty print JSON output")
}

// GetAssessCmd exports the assess command
func GetAssessCmd() *cobra.Command {
	return assessCmd
}

func runAssess(cmd *cobra.Command, args []string) error {
	id := args[0]

	store := catalog.NewStore(dataDirFlag)
	item, err := store.ItemByID(id)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	if item == nil {
		return fmt.Errorf("catalog entry not found: %s", id)
	}

	policy, err := config.NewLoader(configDirFlag).SecurityPolicy()
	if err != nil {
		return fmt.Errorf("loading security policy: %w", err)
	}

	assessment := risk.Assess(*item, policy, time.Now())

	var out []byte
	if assessPrettyFlag {
		out, err = json.MarshalIndent(assessment, "", "  ")
	} else {
		out, err = json.Marshal(assessment)
	}
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}
