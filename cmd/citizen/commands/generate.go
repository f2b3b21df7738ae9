package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marshallshelly/modelcitizen/cmd/citizen/output"
	"github.com/marshallshelly/modelcitizen/pkg/loader"
	"github.com/spf13/cobra"
)

var (
	scanDir        string
	registryOutput string
)

// generateCmd groups the code generators
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate code from blueprint definitions",
}

// registryCmd generates the registry file for a package of definitions
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Generate the registry file for a package of blueprint definitions",
	Long: `Scan a package for blueprint definitions and generate a file whose init
function registers them, and the models declared beside them, by name.

Registered definitions can then be loaded with factory.RegisterByName, and
HCL blueprints can refer to the registered models.

Examples:
  citizen generate registry --scan ./internal/fixtures
  citizen generate registry --scan ./fixtures --output ./fixtures/registry.gen.go`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerateRegistry()
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.AddCommand(registryCmd)

	registryCmd.Flags().StringVar(&scanDir, "scan", "", "Package directory to scan for definitions (required)")
	registryCmd.Flags().StringVarP(&registryOutput, "output", "o", "", "Output file path (default: <scan-dir>/blueprints.gen.go)")
	_ = registryCmd.MarkFlagRequired("scan")
}

func runGenerateRegistry() error {
	if scanDir == "" {
		return fmt.Errorf("--scan flag is required")
	}

	absPath, err := filepath.Abs(scanDir)
	if err != nil {
		return fmt.Errorf("invalid scan path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("scan directory not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan path must be a directory: %s", absPath)
	}

	output.Section("Scanning for blueprint definitions")
	output.Info("Directory: %s", absPath)

	pkgName, err := loader.PackageName(absPath)
	if err != nil {
		return fmt.Errorf("failed to determine package name: %w", err)
	}

	defs, err := scanDefinitions(absPath)
	if err != nil {
		return err
	}

	var local []loader.Definition
	for _, d := range defs {
		if d.Package == pkgName && filepath.Dir(d.File) == absPath {
			local = append(local, d)
		}
	}

	if len(local) == 0 {
		output.Warning("No blueprint definitions found in package %s", pkgName)
		return nil
	}

	output.Success("Found %d definition(s)", len(local))
	for _, d := range local {
		_, _ = fmt.Fprintf(output.Writer, "  %s → %s (%s)\n", d.Name, d.Model, d.Alias)
	}
	_, _ = fmt.Fprintln(output.Writer)

	outPath := registryOutput
	if outPath == "" {
		outPath = filepath.Join(absPath, "blueprints.gen.go")
	}

	var buf bytes.Buffer
	if err := loader.GenerateRegistryFile(&buf, pkgName, local); err != nil {
		return fmt.Errorf("failed to generate file: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	output.Success("Generated: %s", outPath)
	output.Info("Commit this file to version control")
	return nil
}
