package blueprint

import (
	"errors"
	"reflect"
	"testing"

	"github.com/marshallshelly/modelcitizen/pkg/field"
	"github.com/marshallshelly/modelcitizen/pkg/runtime"
	"github.com/marshallshelly/modelcitizen/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Wheel struct {
	Size int
}

type Driver struct {
	Name string
	Age  int
}

type Car struct {
	Make      string
	Mileage   float32
	Status    map[string]string
	Wheels    []*Wheel
	Rims      []Wheel
	Spares    map[*Wheel]struct{}
	Tags      map[Wheel]bool
	Driver    *Driver
	Passenger *Driver
	Owner     Driver
	Serial    string
}

func TestNew(t *testing.T) {
	bp, err := New[Car](
		Alias("cool"),
		Default("Make", "cool brand"),
		Default("Mileage", 100.1, Force()),
		Mapped("Driver"),
		Mapped("Passenger", Nullable()),
		MappedList("Wheels", 4, Force()),
		MappedListByAliases("Rims", []string{"a", "b"}),
		MappedSet("Spares", 1, IgnoreEmpty(false)),
	)
	require.NoError(t, err)

	assert.Equal(t, reflect.TypeOf(Car{}), bp.Target)
	assert.Equal(t, "cool", bp.Alias)
	assert.Same(t, template.Default, bp.Template)
	require.Len(t, bp.Rules, 7)

	t.Run("literal", func(t *testing.T) {
		lit, ok := bp.Rule("Mileage").(*field.Literal)
		require.True(t, ok)
		assert.True(t, lit.Force)
		assert.Equal(t, reflect.TypeOf(float32(0)), lit.FieldType)
		assert.Equal(t, 100.1, lit.Value)
	})

	t.Run("single", func(t *testing.T) {
		single := bp.Rule("Passenger").(*field.Single)
		assert.True(t, single.Nullable)
		assert.Equal(t, reflect.TypeOf(Driver{}), single.Model)
		assert.False(t, bp.Rule("Driver").(*field.Single).Nullable)
	})

	t.Run("list defaults element type and aliases", func(t *testing.T) {
		list := bp.Rule("Wheels").(*field.List)
		assert.Equal(t, reflect.TypeOf(Wheel{}), list.Model)
		assert.Equal(t, reflect.TypeOf([]*Wheel{}), list.Collection)
		assert.Equal(t, []string{DefaultAlias, DefaultAlias, DefaultAlias, DefaultAlias}, list.Aliases)
		assert.True(t, list.Force)
		assert.True(t, list.IgnoreEmpty)
	})

	t.Run("list by aliases", func(t *testing.T) {
		list := bp.Rule("Rims").(*field.List)
		assert.Equal(t, 2, list.Count)
		assert.Equal(t, []string{"a", "b"}, list.Aliases)
	})

	t.Run("set", func(t *testing.T) {
		set := bp.Rule("Spares").(*field.Set)
		assert.Equal(t, reflect.TypeOf(Wheel{}), set.Model)
		assert.False(t, set.IgnoreEmpty)
		assert.Equal(t, 1, set.Count)
	})

	t.Run("missing rule", func(t *testing.T) {
		assert.Nil(t, bp.Rule("Nope"))
	})

	t.Run("string", func(t *testing.T) {
		assert.Contains(t, bp.String(), "list:Wheels")
	})
}

func TestNew_DefaultsAlias(t *testing.T) {
	bp := MustNew[Car](Alias(""))
	assert.Equal(t, DefaultAlias, bp.Alias)
	assert.Equal(t, "other", bp.WithAlias("other").Alias)
	assert.Equal(t, DefaultAlias, bp.Alias)
}

func TestNew_ElementAlias(t *testing.T) {
	bp := MustNew[Car](MappedList("Wheels", 2, ElementAlias("big")))
	assert.Equal(t, []string{"big", "big"}, bp.Rule("Wheels").(*field.List).Aliases)
}

func TestNew_Hooks(t *testing.T) {
	bp, err := New[Car](
		Construct(func() (*Car, error) { return &Car{Make: "ctor"}, nil }),
		AfterCreate(func(c *Car) (*Car, error) {
			c.Serial = "after"
			return c, nil
		}),
	)
	require.NoError(t, err)
	require.NotNil(t, bp.Constructor)
	require.Len(t, bp.AfterCreate, 1)

	m, err := bp.Constructor()
	require.NoError(t, err)
	car := m.(*Car)
	assert.Equal(t, "ctor", car.Make)

	out, err := bp.AfterCreate[0](car)
	require.NoError(t, err)
	assert.Equal(t, "after", out.(*Car).Serial)

	_, err = bp.AfterCreate[0](&Wheel{})
	assert.Error(t, err)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"unknown field", []Option{Default("Nope", 1)}},
		{"duplicate rule", []Option{Default("Make", "a"), Default("Make", "b")}},
		{"literal type mismatch", []Option{Default("Make", 12)}},
		{"literal overflows field", []Option{Default("Mileage", 1e40)}},
		{"mapped non struct", []Option{Mapped("Make")}},
		{"list on non slice", []Option{MappedList("Driver", 1)}},
		{"list collection not a slice", []Option{MappedList("Wheels", 1, Collection(reflect.TypeOf(map[*Wheel]bool{})))}},
		{"list collection wrong element", []Option{MappedList("Wheels", 1, Model(reflect.TypeOf(Driver{})))}},
		{"negative size", []Option{MappedList("Wheels", -1)}},
		{"set on slice", []Option{MappedSet("Wheels", 1)}},
		{"set on string map", []Option{MappedSet("Status", 1)}},
		{"constructor type", []Option{Construct(func() (*Wheel, error) { return &Wheel{}, nil })}},
		{"hook type", []Option{AfterCreate(func(w *Wheel) (*Wheel, error) { return w, nil })}},
		{"nil hook", []Option{AfterCreate[Car](nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[Car](tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, runtime.ErrRegistration), "got %v", err)
		})
	}

	t.Run("non struct target", func(t *testing.T) {
		_, err := Build(reflect.TypeOf(0))
		assert.ErrorIs(t, err, runtime.ErrRegistration)
	})

	t.Run("literal fraction into int", func(t *testing.T) {
		_, err := New[Wheel](Default("Size", 2.7))
		assert.ErrorIs(t, err, runtime.ErrRegistration)

		bp, err := New[Wheel](Default("Size", 17.0))
		require.NoError(t, err)
		assert.Equal(t, 17.0, bp.Rule("Size").(*field.Literal).Value, "whole floats are accepted as stored")
	})

	t.Run("must new panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNew[Car](Default("Nope", 1)) })
	})
}

func TestNew_ValueCollections(t *testing.T) {
	bp, err := New[Car](
		MappedSet("Tags", 2),
		Mapped("Owner"),
	)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(Wheel{}), bp.Rule("Tags").(*field.Set).Model)
	assert.Equal(t, reflect.TypeOf(Driver{}), bp.Rule("Owner").(*field.Single).Model)
}

func TestDeferred(t *testing.T) {
	t.Run("uuid", func(t *testing.T) {
		d := UUID()
		a, err := d.Eval(nil)
		require.NoError(t, err)
		b, err := d.Eval(nil)
		require.NoError(t, err)
		assert.Len(t, a, 36)
		assert.NotEqual(t, a, b)
	})

	t.Run("sequence", func(t *testing.T) {
		d := Sequence("user%d")
		a, _ := d.Eval(nil)
		b, _ := d.Eval(nil)
		assert.Equal(t, "user1", a)
		assert.Equal(t, "user2", b)
	})

	t.Run("func sees reference", func(t *testing.T) {
		d := DeferredFunc(func(ref any) (any, error) { return ref.(*Car).Make + "!", nil })
		v, err := d.Eval(&Car{Make: "vw"})
		require.NoError(t, err)
		assert.Equal(t, "vw!", v)
	})

	t.Run("deferred literal skips conversion check", func(t *testing.T) {
		_, err := New[Car](Default("Serial", UUID()))
		assert.NoError(t, err)
	})
}
