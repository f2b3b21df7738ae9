package commands

import (
	"github.com/marshallshelly/modelcitizen/cmd/citizen/output"
	"github.com/marshallshelly/modelcitizen/cmd/citizen/tui"
	"github.com/spf13/cobra"
)

var browseScan string

// browseCmd opens the interactive definition browser
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse blueprint definitions interactively",
	Long: `Scan Go source files for blueprint definitions and browse them in an
interactive terminal UI.

Examples:
  citizen browse --scan ./internal/fixtures`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := scanDefinitions(browseScan)
		if err != nil {
			return err
		}
		if len(defs) == 0 {
			output.Warning("No blueprint definitions found in %s", browseScan)
			return nil
		}
		return tui.RunBrowseUI(defs)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringVar(&browseScan, "scan", ".", "File or directory to scan")
}
