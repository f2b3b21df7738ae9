package erector

import (
	"errors"
	"reflect"
	"testing"

	"github.com/marshallshelly/modelcitizen/pkg/blueprint"
	"github.com/marshallshelly/modelcitizen/pkg/field"
	"github.com/marshallshelly/modelcitizen/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Wheel struct {
	Size int
}

type Car struct {
	Make   string
	Wheels []*Wheel
}

func TestNew(t *testing.T) {
	bp := blueprint.MustNew[Car](
		blueprint.Default("Make", "vw"),
		blueprint.MappedList("Wheels", 2),
		blueprint.AfterCreate(func(c *Car) (*Car, error) { return c, nil }),
	)

	e, err := New("", bp)
	require.NoError(t, err)

	assert.Equal(t, blueprint.DefaultAlias, e.Alias())
	assert.Equal(t, reflect.TypeOf(Car{}), e.Target())
	assert.Same(t, bp, e.Blueprint())
	assert.Len(t, e.Rules(), 2)
	assert.Equal(t, "Make", e.Rule("Make").Name())
	assert.Nil(t, e.Rule("Nope"))
	assert.Len(t, e.Callbacks(AfterCreate), 1)
	assert.Empty(t, e.Callbacks("beforeCreate"))
	assert.Equal(t, "Erector(default, erector.Car)", e.String())

	t.Run("rules are copied", func(t *testing.T) {
		rules := e.Rules()
		rules[0] = nil
		assert.NotNil(t, e.Rules()[0])
	})
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("x", nil)
	assert.ErrorIs(t, err, runtime.ErrRegistration)

	_, err = New("x", &blueprint.Blueprint{})
	assert.ErrorIs(t, err, runtime.ErrRegistration)
}

func TestNewInstance(t *testing.T) {
	t.Run("template", func(t *testing.T) {
		e, err := New("default", blueprint.MustNew[Car]())
		require.NoError(t, err)

		m, err := e.NewInstance()
		require.NoError(t, err)
		assert.IsType(t, &Car{}, m)
	})

	t.Run("constructor", func(t *testing.T) {
		e, err := New("default", blueprint.MustNew[Car](
			blueprint.Construct(func() (*Car, error) { return &Car{Make: "ctor"}, nil }),
		))
		require.NoError(t, err)

		m, err := e.NewInstance()
		require.NoError(t, err)
		assert.Equal(t, "ctor", m.(*Car).Make)
	})

	t.Run("constructor error", func(t *testing.T) {
		boom := errors.New("boom")
		e, err := New("default", blueprint.MustNew[Car](
			blueprint.Construct(func() (*Car, error) { return nil, boom }),
		))
		require.NoError(t, err)

		_, err = e.NewInstance()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("constructor nil", func(t *testing.T) {
		e, err := New("default", blueprint.MustNew[Car](
			blueprint.Construct(func() (*Car, error) { return nil, nil }),
		))
		require.NoError(t, err)

		_, err = e.NewInstance()
		assert.Error(t, err)
	})
}

func TestRequest(t *testing.T) {
	e, err := New("default", blueprint.MustNew[Car](blueprint.Default("Make", "vw")))
	require.NoError(t, err)
	rule := e.Rule("Make")

	ref := &Car{Make: "ref"}
	r1 := e.NewRequest(ref, 2)
	r2 := e.NewRequest(nil, 0)

	assert.Same(t, e, r1.Erector())
	assert.Same(t, ref, r1.Reference())
	assert.Equal(t, 2, r1.Depth())

	r1.AddCommand(rule, field.SkipReferenceInjection)
	r1.AddCommand(rule, field.None)
	r1.AddCommands(map[field.Rule]field.Command{rule: field.SkipBlueprintInjection})

	assert.True(t, r1.Commands(rule).Has(field.SkipReferenceInjection|field.SkipBlueprintInjection))
	assert.Equal(t, field.None, r2.Commands(rule), "requests do not share commands")
	assert.Nil(t, r2.Reference())
}
