//go:build integration
// +build integration

package modelcitizen_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
	"github.com/marshallshelly/modelcitizen/pkg/erector"
	"github.com/marshallshelly/modelcitizen/pkg/factory"
	"github.com/marshallshelly/modelcitizen/pkg/field"
	"github.com/marshallshelly/modelcitizen/pkg/hclblueprint"
	"github.com/marshallshelly/modelcitizen/pkg/loader"
	"github.com/marshallshelly/modelcitizen/pkg/policy"
	"github.com/marshallshelly/modelcitizen/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Wheel struct {
	Size int
}

type Car struct {
	ID     string
	Make   string
	Wheels []*Wheel
}

type Person struct {
	Name string
}

type Garage struct {
	Name  string
	Owner *Person
	Cars  []*Car
}

type GarageBlueprint struct {
	blueprint.Of[Garage]

	Name  string  `mc:"default"`
	Owner *Person `mc:"mapped,nullable"`
	Cars  []*Car  `mc:"list,aliases(sport|default)"`
}

func (g *GarageBlueprint) Init() {
	g.Name = "Main Street"
}

const garageHCL = `
blueprint "Wheel" {
  default "Size" {
    value = 17
  }
}

blueprint "Car" {
  alias = "sport"

  default "Make" {
    value = "sport brand"
  }

  list "Wheels" {
    size = 4
  }
}
`

const garageSrc = `package garage

import "github.com/marshallshelly/modelcitizen/pkg/blueprint"

type Garage struct {
	Name string
}

type GarageBlueprint struct {
	blueprint.Of[Garage]

	Name string ` + "`mc:\"default\"`" + `
}
`

// TestGeneratedRegistry checks the scan and generate step that feeds the
// registry used below.
func TestGeneratedRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garage.go"), []byte(garageSrc), 0o644))

	defs, err := loader.FindDefinitions(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	pkg, err := loader.PackageName(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, loader.GenerateRegistryFile(&buf, pkg, defs))
	assert.Contains(t, buf.String(), "registry.RegisterDefinition(GarageBlueprint{})")
	assert.Contains(t, buf.String(), "registry.RegisterModel(Garage{})")
}

func TestEndToEnd(t *testing.T) {
	reg := registry.NewRegistry()
	for _, m := range []any{Wheel{}, Car{}, Person{}, Garage{}} {
		require.NoError(t, reg.RegisterModel(m))
	}
	require.NoError(t, reg.RegisterDefinition(GarageBlueprint{}))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := factory.New(factory.WithRegistry(reg), factory.WithLogger(logger))

	// HCL blueprints: Wheel default and Car sport
	defs, err := hclblueprint.Parse([]byte(garageHCL), "garage.hcl")
	require.NoError(t, err)
	bps, err := hclblueprint.Resolve(defs, reg)
	require.NoError(t, err)
	require.NoError(t, f.RegisterAll(bps[0], bps[1]))

	// Builder API: Car default
	require.NoError(t, f.Register(blueprint.MustNew[Car](
		blueprint.Default("ID", blueprint.UUID()),
		blueprint.Default("Make", "generic"),
		blueprint.MappedList("Wheels", 2),
	)))

	// Tagged definition, looked up by name
	require.NoError(t, f.RegisterByName("GarageBlueprint"))

	// Policies are scoped by model type; this one only acts on sport builds.
	sportMake := policy.BlueprintFunc{
		Type: reflect.TypeOf(Car{}),
		Fn: func(_ policy.Creator, e *erector.Erector, _ any) (map[field.Rule]field.Command, error) {
			if e.Alias() != "sport" {
				return nil, nil
			}
			return map[field.Rule]field.Command{e.Rule("Make"): field.SkipInjection}, nil
		},
	}
	require.NoError(t, f.AddPolicyAs("sport", sportMake))

	g, err := factory.Create[Garage](f)
	require.NoError(t, err)

	assert.Equal(t, "Main Street", g.Name)
	assert.Nil(t, g.Owner)
	require.Len(t, g.Cars, 2)

	sport, generic := g.Cars[0], g.Cars[1]
	assert.Empty(t, sport.Make, "policy skips Make on sport cars")
	assert.Empty(t, sport.ID)
	require.Len(t, sport.Wheels, 4)
	assert.Equal(t, 17, sport.Wheels[3].Size)

	assert.Equal(t, "generic", generic.Make)
	assert.Len(t, generic.ID, 36)
	assert.Len(t, generic.Wheels, 2)

	t.Run("without policies", func(t *testing.T) {
		g, err := factory.Create[Garage](f, factory.WithoutPolicies())
		require.NoError(t, err)
		assert.Equal(t, "sport brand", g.Cars[0].Make)
	})

	t.Run("from reference", func(t *testing.T) {
		ref := &Garage{Owner: &Person{Name: "Ada"}, Cars: []*Car{{Make: "kept"}}}
		g, err := factory.CreateFrom(f, ref)
		require.NoError(t, err)

		assert.Equal(t, "Ada", g.Owner.Name)
		require.Len(t, g.Cars, 1)
		assert.Empty(t, g.Cars[0].Make, "element built under sport alias, where the policy skips Make")
		assert.Len(t, g.Cars[0].Wheels, 4)
	})

	assert.Contains(t, logs.String(), "Registered blueprint")
}
