package cli

import (
	"fmt"
	"time"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/config"
	"github.com/capguard/capguard/internal/installer"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the local environment",
	Long: `Checks installer binaries, catalog health, registry configuration,
and sync freshness, with a suggestion for each failing check.

Example:
  capguard doctor`,
	RunE: runDoctor,
}

// GetDoctorCmd exports the doctor command
func GetDoctorCmd() *cobra.Command {
	return doctorCmd
}

const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"
)

type doctorCheck struct {
	Name       string
	Status     string
	Message    string
	Suggestion string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := runDoctorChecks(
		catalog.NewStore(dataDirFlag),
		config.NewLoader(configDirFlag),
		installer.NewRunner().Look,
		time.Now(),
	)

	failed := 0
	for _, check := range checks {
		marker := "ok "
		switch check.Status {
		case checkWarn:
			marker = "warn"
		case checkFail:
			marker = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %-14s %s\n", marker, check.Name, check.Message)
		if check.Suggestion != "" && check.Status != checkPass {
			fmt.Printf("       %s\n", check.Suggestion)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d doctor check(s) failed", failed)
	}
	return nil
}

// runDoctorChecks gathers every diagnostic; it never aborts early so the
// user sees the full picture in one run.
func runDoctorChecks(store *catalog.Store, loader *config.Loader, look func(string) error, now time.Time) []doctorCheck {
	checks := []doctorCheck{
		checkBinary(look, "skill.sh", true, "Install skill.sh and verify with: skill.sh --version"),
		checkBinary(look, "gh", false, "Install the GitHub CLI to enable copilot-extension installs"),
	}

	items, err := store.LoadItems()
	switch {
	case err != nil:
		checks = append(checks, doctorCheck{
			Name: "Catalog", Status: checkFail,
			Message: "Catalog unreadable", Suggestion: "Run: capguard sync",
		})
	case len(items) == 0:
		checks = append(checks, doctorCheck{
			Name: "Catalog", Status: checkWarn,
			Message: "Catalog is empty", Suggestion: "Run: capguard sync",
		})
	default:
		checks = append(checks, doctorCheck{
			Name: "Catalog", Status: checkPass,
			Message: fmt.Sprintf("%d items loaded", len(items)),
		})
	}

	registries, err := loader.Registries()
	if err != nil {
		checks = append(checks, doctorCheck{
			Name: "Registries", Status: checkWarn,
			Message:    "registries.json missing or invalid",
			Suggestion: "Create registries.json under the config directory",
		})
	} else {
		checks = append(checks, doctorCheck{
			Name: "Registries", Status: checkPass,
			Message: fmt.Sprintf("%d registries enabled", len(registries)),
		})
	}

	state, err := store.LoadSyncState()
	if err != nil {
		checks = append(checks, doctorCheck{
			Name: "Sync freshness", Status: checkFail,
			Message: "Sync state unreadable", Suggestion: "Run: capguard sync",
		})
		return checks
	}
	if stale := catalog.StaleRegistries(state, now); len(stale) > 0 {
		checks = append(checks, doctorCheck{
			Name: "Sync freshness", Status: checkWarn,
			Message:    fmt.Sprintf("%d stale registries", len(stale)),
			Suggestion: "Run: capguard sync",
		})
	} else {
		checks = append(checks, doctorCheck{
			Name: "Sync freshness", Status: checkPass,
			Message: "No stale registries",
		})
	}

	return checks
}

func checkBinary(look func(string) error, binary string, required bool, suggestion string) doctorCheck {
	if err := look(binary); err == nil {
		return doctorCheck{Name: binary, Status: checkPass, Message: binary + " available"}
	}
	status := checkWarn
	if required {
		status = checkFail
	}
	return doctorCheck{Name: binary, Status: status, Message: binary + " not found", Suggestion: suggestion}
}
