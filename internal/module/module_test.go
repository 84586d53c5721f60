package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGetRemove(t *testing.T) {
	tbl := NewTable[ProcessorDef]()
	tbl.Set(3, &ProcessorDef{Kind: "sine"})
	tbl.Set(1, &ProcessorDef{Kind: "sample"})

	require.NotNil(t, tbl.Get(3))
	assert.Equal(t, "sine", tbl.Get(3).Kind)
	assert.Nil(t, tbl.Get(0))
	assert.Equal(t, []int{1, 3}, tbl.Indices())

	tbl.Remove(3)
	assert.Nil(t, tbl.Get(3))
	assert.Equal(t, 1, tbl.Count())
}

func TestControlMapIsOneToManyAUSide(t *testing.T) {
	cm := NewControlMap()
	cm.Set(0, 2)
	cm.Set(1, 2)
	cm.Set(2, 5)

	au, ok := cm.AUFor(1)
	require.True(t, ok)
	assert.Equal(t, 2, au)
	assert.ElementsMatch(t, []int{0, 1}, cm.ControlsFor(2))
	assert.ElementsMatch(t, []int{2}, cm.ControlsFor(5))
}

func TestControlMapReassignmentMovesReverseIndex(t *testing.T) {
	cm := NewControlMap()
	cm.Set(0, 2)
	cm.Set(0, 5) // control 0 now routes to AU 5 instead

	assert.Empty(t, cm.ControlsFor(2))
	assert.ElementsMatch(t, []int{0}, cm.ControlsFor(5))
}

func TestEnvironmentSetGet(t *testing.T) {
	env := NewEnvironment()
	env.Set("intensity", EnvFloat, 0.75)
	v, ok := env.Get("intensity")
	require.True(t, ok)
	assert.Equal(t, 0.75, v)

	_, ok = env.Get("missing")
	assert.False(t, ok)
}

func TestNewModuleHasUsableZeroState(t *testing.T) {
	m := New()
	assert.Equal(t, 0, m.AUs.Count())
	assert.Equal(t, 0, m.Patterns.Count())
	assert.NotNil(t, m.Bind)
	assert.NotNil(t, m.Control)
}
