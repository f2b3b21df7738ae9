package registry

import (
	"reflect"
	"testing"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
)

type Car struct {
	Make string
}

type CarBlueprint struct {
	blueprint.Of[Car]
	Make string `mc:"default"`
}

// Blueprint shares its short name with blueprint.Blueprint.
type Blueprint struct{}

func TestRegistry_RegisterDefinition(t *testing.T) {
	registry := NewRegistry()

	t.Run("register value", func(t *testing.T) {
		if err := registry.RegisterDefinition(CarBlueprint{}); err != nil {
			t.Fatalf("RegisterDefinition failed: %v", err)
		}
		if !registry.Has(Definitions, "CarBlueprint") {
			t.Error("expected short name to be registered")
		}
		if !registry.Has(Definitions, QualifiedName(reflect.TypeOf(CarBlueprint{}))) {
			t.Error("expected qualified name to be registered")
		}
	})

	t.Run("register pointer and type", func(t *testing.T) {
		if err := registry.RegisterDefinition(&CarBlueprint{}); err != nil {
			t.Fatalf("RegisterDefinition with pointer failed: %v", err)
		}
		if err := registry.RegisterDefinition(reflect.TypeOf(CarBlueprint{})); err != nil {
			t.Fatalf("RegisterDefinition with type failed: %v", err)
		}
		if got := len(registry.Definitions()); got != 1 {
			t.Errorf("expected 1 definition, got %d", got)
		}
	})

	t.Run("register invalid type", func(t *testing.T) {
		if err := registry.RegisterDefinition("not a struct"); err == nil {
			t.Error("expected error for non-struct type")
		}
		if err := registry.RegisterDefinition(struct{}{}); err == nil {
			t.Error("expected error for unnamed type")
		}
	})

	t.Run("namespaces are separate", func(t *testing.T) {
		if registry.Has(Models, "CarBlueprint") {
			t.Error("definition leaked into model namespace")
		}
	})
}

func TestRegistry_Lookup(t *testing.T) {
	registry := NewRegistry()
	if err := registry.RegisterModel(Car{}); err != nil {
		t.Fatalf("RegisterModel failed: %v", err)
	}

	got, err := registry.Model("Car")
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	if got != reflect.TypeOf(Car{}) {
		t.Errorf("expected %v, got %v", reflect.TypeOf(Car{}), got)
	}

	if _, err := registry.Model("Truck"); err == nil {
		t.Error("expected error for unknown model")
	}
	if _, err := registry.Definition("Car"); err == nil {
		t.Error("expected error looking up a model as a definition")
	}
}

func TestRegistry_AmbiguousShortName(t *testing.T) {
	registry := NewRegistry()
	local := reflect.TypeOf(Blueprint{})
	other := reflect.TypeOf(blueprint.Blueprint{})

	if err := registry.RegisterModel(local); err != nil {
		t.Fatalf("RegisterModel failed: %v", err)
	}
	if err := registry.RegisterModel(other); err != nil {
		t.Fatalf("RegisterModel failed: %v", err)
	}

	if _, err := registry.Model("Blueprint"); err == nil {
		t.Error("expected ambiguous short name to fail")
	}

	got, err := registry.Model(QualifiedName(other))
	if err != nil {
		t.Fatalf("qualified lookup failed: %v", err)
	}
	if got != other {
		t.Errorf("expected %v, got %v", other, got)
	}

	if got := len(registry.Models()); got != 2 {
		t.Errorf("expected 2 models, got %d", got)
	}
}

func TestRegistry_Sorted(t *testing.T) {
	registry := NewRegistry()
	_ = registry.RegisterModel(Car{})
	_ = registry.RegisterModel(blueprint.Blueprint{})

	models := registry.Models()
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if QualifiedName(models[0]) > QualifiedName(models[1]) {
		t.Errorf("models not sorted: %v", models)
	}
}

func TestRegistry_Clear(t *testing.T) {
	registry := NewRegistry()
	_ = registry.RegisterModel(Car{})

	registry.Clear()

	if registry.Has(Models, "Car") {
		t.Error("expected registry to be empty after Clear")
	}
	if len(registry.Models()) != 0 {
		t.Error("expected no models after Clear")
	}
}

func TestGlobalRegistry(t *testing.T) {
	// Clear global registry first
	Clear()
	defer Clear()

	if err := RegisterDefinition(CarBlueprint{}); err != nil {
		t.Fatalf("global RegisterDefinition failed: %v", err)
	}
	if err := RegisterModel(Car{}); err != nil {
		t.Fatalf("global RegisterModel failed: %v", err)
	}

	if _, err := Definition("CarBlueprint"); err != nil {
		t.Errorf("global Definition failed: %v", err)
	}
	if _, err := Model("Car"); err != nil {
		t.Errorf("global Model failed: %v", err)
	}
	if Global().Has(Models, "CarBlueprint") {
		t.Error("definition registered as model")
	}
}
