package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/marshallshelly/modelcitizen/cmd/citizen/output"
	"github.com/marshallshelly/modelcitizen/pkg/loader"
	"github.com/spf13/cobra"
)

var listScan string

// listCmd lists the blueprint definitions in a source tree
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List blueprint definitions found in Go source files",
	Long: `Scan Go source files for structs embedding blueprint.Of[T] and list them
with their target model, alias and tagged field rules.

Examples:
  citizen list --scan ./internal/fixtures
  citizen list --scan ./internal/fixtures --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listScan, "scan", ".", "File or directory to scan")
}

func runList() error {
	defs, err := scanDefinitions(listScan)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(output.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	}

	if len(defs) == 0 {
		output.Warning("No blueprint definitions found in %s", listScan)
		output.Info("Embed blueprint.Of[YourModel] in a struct to declare one")
		return nil
	}

	output.Section(fmt.Sprintf("Blueprint Definitions (%d)", len(defs)))
	for _, d := range defs {
		printDefinition(d)
	}
	return nil
}

// scanDefinitions resolves path and runs the loader over it.
func scanDefinitions(path string) ([]loader.Definition, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid scan path: %w", err)
	}

	slog.Debug("Scanning for blueprint definitions", "path", absPath)
	defs, err := loader.FindDefinitions(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for definitions: %w", err)
	}
	slog.Debug("Scan complete", "definitions", len(defs))
	return defs, nil
}

func printDefinition(d loader.Definition) {
	output.Primary("%s.%s", d.Package, d.Name)
	output.Muted("  model: %s  alias: %s", d.Model, d.Alias)
	if d.Base != "" {
		output.Muted("  extends: %s", d.Base)
	}
	if verbose {
		output.Muted("  %s:%d", d.File, d.Line)
	}
	for _, r := range d.Rules {
		_, _ = fmt.Fprintf(output.Writer, "    %s %s `%s`\n", output.RuleIcon(r.Kind), r.Field, r.Tag)
	}
	_, _ = fmt.Fprintln(output.Writer)
}
