package innergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddVariableUsage(t *testing.T) {
	s := New(true)
	s.AddVariableUsage("foo", Value("default"))
	s.AddVariableUsage("foo", Value("foo"))
	s.AddVariableUsage("foo", Value("default"))
	s.AddVariableUsage("bar", Value("baz"))
	s.AddVariableUsage("helper", TopLevel("foo"))
	s.AddVariableUsage("helper", TopLevel("foo"))
	s.AddVariableUsage("sideEffect", AlwaysUsed)

	assert.Equal(t, []string{"default", "foo"}, s.UsedExports("foo"))
	assert.Equal(t, []string{"baz"}, s.UsedExports("bar"))
	assert.Empty(t, s.UsedExports("helper"))
	assert.Nil(t, s.UsedExports("missing"))

	assert.Equal(t, []string{"foo"}, s.TopLevelUsers("helper"))
	assert.Nil(t, s.TopLevelUsers("missing"))

	assert.True(t, s.IsAlwaysUsed("sideEffect"))
	assert.False(t, s.IsAlwaysUsed("foo"))

	assert.Equal(t, []string{"foo", "bar", "helper", "sideEffect"}, s.Bindings())
}

func TestBindingsForExport(t *testing.T) {
	s := New(true)
	s.AddVariableUsage("a", Value("x"))
	s.AddVariableUsage("b", Value("y"))
	s.AddVariableUsage("c", Value("x"))

	assert.Equal(t, []string{"a", "c"}, s.BindingsForExport("x"))
	assert.Equal(t, []string{"b"}, s.BindingsForExport("y"))
	assert.Nil(t, s.BindingsForExport("z"))
}

func TestSnapshot(t *testing.T) {
	s := New(true)
	s.AddVariableUsage("*default*", Value("default"))
	s.AddVariableUsage("init", AlwaysUsed)

	assert.Equal(t, map[string][]string{
		"*default*": {"default"},
		"init":      {"*"},
	}, s.Snapshot())
}

func TestDisabledStateIgnoresUsage(t *testing.T) {
	s := New(false)
	s.AddVariableUsage("foo", Value("foo"))
	s.AddVariableUsage("foo", AlwaysUsed)

	assert.False(t, s.Enabled())
	assert.Empty(t, s.Bindings())
	assert.Nil(t, s.UsedExports("foo"))
	assert.Empty(t, s.Snapshot())
}
