// Package hclblueprint reads blueprints from HCL files:
//
//	blueprint "Car" {
//	  alias = "cool"
//
//	  default "Make" {
//	    value = "cool brand"
//	    force = true
//	  }
//
//	  mapped "Driver" {}
//
//	  list "Wheels" {
//	    size  = 4
//	    force = true
//	  }
//	}
//
// Model names are resolved through a registry.Registry.
package hclblueprint

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// File is the top-level structure of a blueprint file.
type File struct {
	Blueprints []*Definition `hcl:"blueprint,block"`
}

// Definition is one `blueprint "<Model>"` block.
type Definition struct {
	Model    string          `hcl:"model,label"`
	Alias    string          `hcl:"alias,optional"`
	Defaults []*DefaultBlock `hcl:"default,block"`
	Mapped   []*MappedBlock  `hcl:"mapped,block"`
	Lists    []*ListBlock    `hcl:"list,block"`
	Sets     []*SetBlock     `hcl:"set,block"`

	// Filename and Order are filled in after decoding. Order lists the
	// rule blocks as "kind.field" in source order.
	Filename string
	Order    []string
}

// DefaultBlock is a literal rule.
type DefaultBlock struct {
	Field string    `hcl:"field,label"`
	Value cty.Value `hcl:"value"`
	Force bool      `hcl:"force,optional"`
}

// MappedBlock is a nested single model rule.
type MappedBlock struct {
	Field    string `hcl:"field,label"`
	Nullable bool   `hcl:"nullable,optional"`
	Model    string `hcl:"model,optional"`
}

// ListBlock is a list rule. Either size or aliases must be set.
type ListBlock struct {
	Field     string   `hcl:"field,label"`
	Size      *int     `hcl:"size,optional"`
	Aliases   []string `hcl:"aliases,optional"`
	Alias     string   `hcl:"alias,optional"`
	Force     bool     `hcl:"force,optional"`
	FillEmpty bool     `hcl:"fill_empty,optional"`
	Model     string   `hcl:"model,optional"`
}

// SetBlock is a set rule.
type SetBlock struct {
	Field     string `hcl:"field,label"`
	Size      int    `hcl:"size"`
	Force     bool   `hcl:"force,optional"`
	FillEmpty bool   `hcl:"fill_empty,optional"`
	Model     string `hcl:"model,optional"`
}

// ParseFile parses and decodes a blueprint file.
func ParseFile(path string) ([]*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(file, path)
}

// Parse parses and decodes blueprint source; filename is used in
// diagnostics only.
func Parse(src []byte, filename string) ([]*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(file, filename)
}

func decode(file *hcl.File, filename string) ([]*Definition, error) {
	var parsed File
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	var blocks hclsyntax.Blocks
	if body, ok := file.Body.(*hclsyntax.Body); ok {
		blocks = body.Blocks
	}

	for i, def := range parsed.Blueprints {
		def.Filename = filename
		if i < len(blocks) {
			for _, b := range blocks[i].Body.Blocks {
				if len(b.Labels) == 1 {
					def.Order = append(def.Order, b.Type+"."+b.Labels[0])
				}
			}
		}
	}
	return parsed.Blueprints, nil
}
