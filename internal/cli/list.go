package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/capguard/capguard/internal/catalog"
	"github.com/capguard/capguard/internal/models"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog items",
	RunE:  runList,
}

var (
	listKindsFlag []string
	listJSONFlag  bool
)

func init() {
	listCmd.Flags().StringSliceVarP(&listKindsFlag, "kind", "k", nil, "Restrict output to these kinds")
	listCmd.Flags().BoolVar(&listJSONFlag, "json", false, "Emit JSON instead of a table")
}

// GetListCmd exports the list command
func GetListCmd() *cobra.Command {
	return listCmd
}

func runList(cmd *cobra.Command, args []string) error {
	kinds, err := parseKinds(listKindsFlag)
	if err != nil {
		return err
	}

	store := catalog.NewStore(dataDirFlag)
	items, err := store.LoadItems()
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	kindFilter := make(map[models.Kind]bool, len(kinds))
	for _, k := range kinds {
		kindFilter[k] = true
	}

	filtered := items[:0:0]
	for _, item := range items {
		if len(kindFilter) > 0 && !kindFilter[item.Kind] {
			continue
		}
		filtered = append(filtered, item)
	}

	if listJSONFlag {
		out, err := json.MarshalIndent(filtered, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	for _, item := range filtered {
		fmt.Printf("%-40s %-18s %-12s %s\n",
			item.ID, item.Kind, item.Provider, strings.Join(item.Capabilities, ","))
	}
	fmt.Printf("%d items\n", len(filtered))
	return nil
}
