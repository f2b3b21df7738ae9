package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marshallshelly/modelcitizen/cmd/citizen/output"
	"github.com/marshallshelly/modelcitizen/pkg/hclblueprint"
	"github.com/spf13/cobra"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var hclFile string

// inspectCmd prints the blueprints declared in an HCL file
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the blueprints declared in an HCL file",
	Long: `Parse an HCL blueprint file and print every blueprint with its rules in
declaration order.

Examples:
  citizen inspect --hcl ./testdata/cars.hcl
  citizen inspect --hcl ./testdata/cars.hcl --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&hclFile, "hcl", "", "HCL blueprint file (required)")
	_ = inspectCmd.MarkFlagRequired("hcl")
}

// ruleView is the printable form of one HCL rule block.
type ruleView struct {
	Kind    string `json:"kind"`
	Field   string `json:"field"`
	Details string `json:"details,omitempty"`
}

type blueprintView struct {
	Model string     `json:"model"`
	Alias string     `json:"alias"`
	Rules []ruleView `json:"rules"`
}

func runInspect() error {
	defs, err := hclblueprint.ParseFile(hclFile)
	if err != nil {
		return err
	}

	views := make([]blueprintView, 0, len(defs))
	for _, d := range defs {
		v, err := viewOf(d)
		if err != nil {
			return err
		}
		views = append(views, v)
	}

	if jsonOutput {
		enc := json.NewEncoder(output.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	if len(views) == 0 {
		output.Warning("No blueprints declared in %s", hclFile)
		return nil
	}

	output.Section(fmt.Sprintf("HCL Blueprints (%d)", len(views)))
	for _, v := range views {
		output.Primary("%s (%s)", v.Model, v.Alias)
		for _, r := range v.Rules {
			_, _ = fmt.Fprintf(output.Writer, "    %s %s", output.RuleIcon(r.Kind), r.Field)
			if r.Details != "" {
				_, _ = fmt.Fprintf(output.Writer, "  %s", r.Details)
			}
			_, _ = fmt.Fprintln(output.Writer)
		}
		_, _ = fmt.Fprintln(output.Writer)
	}
	return nil
}

// viewOf lists the rules of d in source order.
func viewOf(d *hclblueprint.Definition) (blueprintView, error) {
	alias := d.Alias
	if alias == "" {
		alias = "default"
	}
	v := blueprintView{Model: d.Model, Alias: alias}

	rules := make(map[string]ruleView)
	for _, b := range d.Defaults {
		value, err := ctyjson.SimpleJSONValue{Value: b.Value}.MarshalJSON()
		if err != nil {
			return v, fmt.Errorf("%s.%s: %w", d.Model, b.Field, err)
		}
		details := "value=" + string(value)
		if b.Force {
			details += " force"
		}
		rules["default."+b.Field] = ruleView{Kind: "default", Field: b.Field, Details: details}
	}
	for _, b := range d.Mapped {
		var parts []string
		if b.Nullable {
			parts = append(parts, "nullable")
		}
		if b.Model != "" {
			parts = append(parts, "model="+b.Model)
		}
		rules["mapped."+b.Field] = ruleView{Kind: "mapped", Field: b.Field, Details: strings.Join(parts, " ")}
	}
	for _, b := range d.Lists {
		var parts []string
		if b.Size != nil {
			parts = append(parts, fmt.Sprintf("size=%d", *b.Size))
		}
		if len(b.Aliases) > 0 {
			parts = append(parts, "aliases="+strings.Join(b.Aliases, ","))
		}
		if b.Alias != "" {
			parts = append(parts, "alias="+b.Alias)
		}
		parts = appendFlags(parts, b.Force, b.FillEmpty, b.Model)
		rules["list."+b.Field] = ruleView{Kind: "list", Field: b.Field, Details: strings.Join(parts, " ")}
	}
	for _, b := range d.Sets {
		parts := appendFlags([]string{fmt.Sprintf("size=%d", b.Size)}, b.Force, b.FillEmpty, b.Model)
		rules["set."+b.Field] = ruleView{Kind: "set", Field: b.Field, Details: strings.Join(parts, " ")}
	}

	for _, key := range d.Order {
		if r, ok := rules[key]; ok {
			v.Rules = append(v.Rules, r)
			delete(rules, key)
		}
	}
	return v, nil
}

func appendFlags(parts []string, force, fillEmpty bool, model string) []string {
	if force {
		parts = append(parts, "force")
	}
	if fillEmpty {
		parts = append(parts, "fill_empty")
	}
	if model != "" {
		parts = append(parts, "model="+model)
	}
	return parts
}
