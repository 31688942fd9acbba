package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverrides_Stacking(t *testing.T) {
	o := Table{"p": "orig"}
	ov := NewOverrides()

	require.NoError(t, ov.AddWithLabel("first", Inject(o, "p", "f1")))
	require.NoError(t, ov.AddWithLabel("second", Inject(o, "p", "f2")))
	require.Equal(t, "f2", o["p"])

	r2 := ov.Records("second")[0]
	require.Equal(t, "f1", r2.Original)
	require.Equal(t, "f2", r2.Injected)

	require.NoError(t, ov.RemoveWithLabel("second"))
	require.Equal(t, "f1", o["p"])

	require.NoError(t, ov.RemoveWithLabel("first"))
	require.Equal(t, "orig", o["p"])
}

func TestOverrides_OutOfOrderReverseIsLastWriteWins(t *testing.T) {
	o := Table{"p": "orig"}
	ov := NewOverrides()

	require.NoError(t, ov.AddWithLabel("first", Inject(o, "p", "f1")))
	require.NoError(t, ov.AddWithLabel("second", Inject(o, "p", "f2")))

	require.NoError(t, ov.RemoveWithLabel("first"))
	require.Equal(t, "orig", o["p"])

	require.NoError(t, ov.RemoveWithLabel("second"))
	require.Equal(t, "f1", o["p"], "the second override restores what it captured")
}

func TestOverrides_MissingKeyRemovedOnReverse(t *testing.T) {
	o := Table{}
	ov := NewOverrides()

	require.NoError(t, ov.AddWithLabel("l", Inject(o, "new", 1)))
	require.Equal(t, 1, o["new"])
	require.True(t, ov.Records("l")[0].Absent)

	require.NoError(t, ov.RemoveWithLabel("l"))
	_, ok := o["new"]
	require.False(t, ok, "reverse deletes a key that did not exist")
}

func TestOverrides_StackedOverMissingKey(t *testing.T) {
	o := Table{}
	ov := NewOverrides()

	require.NoError(t, ov.AddWithLabel("first", Inject(o, "p", "f1")))
	require.NoError(t, ov.AddWithLabel("second", Inject(o, "p", "f2")))
	require.False(t, ov.Records("second")[0].Absent)

	require.NoError(t, ov.RemoveWithLabel("second"))
	require.Equal(t, "f1", o["p"])
	require.NoError(t, ov.RemoveWithLabel("first"))
	require.NotContains(t, o, "p")
}

func TestOverrides_MissingProperty(t *testing.T) {
	ov := NewOverrides()

	err := ov.Add(Inject(MustFields(&greeter{}), "Nope", 1))
	require.ErrorIs(t, err, ErrNoProperty)
	require.True(t, ov.Empty())
}

func TestOverrides_Malformed(t *testing.T) {
	ov := NewOverrides()
	require.ErrorIs(t, ov.Add(Injection{Name: "p"}), ErrMalformed)
	require.ErrorIs(t, ov.Add(Injection{Object: Table{"p": 1}}), ErrMalformed)
}

type greeter struct {
	Greet  func(name string) string
	Prefix string
	hidden func()
}

func TestOverrides_StructFunctionField(t *testing.T) {
	g := &greeter{Greet: func(name string) string { return "hello " + name }}
	ov := NewOverrides()

	obj, err := Fields(g)
	require.NoError(t, err)

	require.NoError(t, ov.AddWithLabel("loud", Inject(obj, "Greet", func(name string) string { return "HELLO " + name })))
	require.Equal(t, "HELLO bob", g.Greet("bob"))

	require.NoError(t, ov.Destroy())
	require.Equal(t, "hello bob", g.Greet("bob"))
}

func TestOverrides_StructNilOriginalRestored(t *testing.T) {
	g := &greeter{}
	ov := NewOverrides()

	require.NoError(t, ov.Add(Inject(MustFields(g), "Greet", func(string) string { return "x" })))
	require.NotNil(t, g.Greet)

	require.NoError(t, ov.Destroy())
	require.Nil(t, g.Greet)
}

func TestOverrides_StructTypeMismatch(t *testing.T) {
	g := &greeter{Prefix: "a"}
	ov := NewOverrides()

	err := ov.Add(Inject(MustFields(g), "Prefix", 42))
	require.ErrorIs(t, err, ErrMalformed)
	require.Equal(t, "a", g.Prefix)
	require.True(t, ov.Empty())
}

func TestOverrides_StructUnexportedField(t *testing.T) {
	ov := NewOverrides()
	err := ov.Add(Inject(MustFields(&greeter{}), "hidden", func() {}))
	require.ErrorIs(t, err, ErrNoProperty)
}

func TestFields_RejectsNonStructPointer(t *testing.T) {
	_, err := Fields(greeter{})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Fields((*greeter)(nil))
	require.ErrorIs(t, err, ErrMalformed)

	require.Panics(t, func() { MustFields(3) })
}
